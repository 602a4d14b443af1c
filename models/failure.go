package models

import (
	"time"

	"github.com/google/uuid"
)

// FailureStage identifies the pipeline stage that produced a failure entry.
type FailureStage string

const (
	StageConversion     FailureStage = "conversion"
	StageOverlap        FailureStage = "overlap"
	StageSegmentation   FailureStage = "segmentation"
	StageExtraction     FailureStage = "extraction"
	StageDateResolution FailureStage = "date_resolution"
	StageSplit          FailureStage = "split"
	StageClassification FailureStage = "classification"
)

// PipelineFailure is one entry in the audit/failure log. Every recovered
// failure path produces one of these; nothing is silently swallowed.
type PipelineFailure struct {
	ID         uuid.UUID    `json:"id"`
	RunID      *uuid.UUID   `json:"run_id,omitempty"`
	Stage      FailureStage `json:"stage"`
	DocumentID *uuid.UUID   `json:"document_id,omitempty"`
	ChunkIndex *int         `json:"chunk_index,omitempty"`
	Subject    string       `json:"subject"` // filename, record title, or chunk identity
	Reason     string       `json:"reason"`
	CreatedAt  time.Time    `json:"created_at"`
}
