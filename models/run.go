package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PipelineRunStatus represents the status of a pipeline run
type PipelineRunStatus string

const (
	RunStatusPending    PipelineRunStatus = "pending"
	RunStatusInProgress PipelineRunStatus = "in_progress"
	RunStatusCompleted  PipelineRunStatus = "completed"
	RunStatusFailed     PipelineRunStatus = "failed"
)

// PipelineStep represents a step in the pipeline run
type PipelineStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string `json:"description,omitempty"`
}

// PipelineSteps represents a list of pipeline steps
type PipelineSteps []PipelineStep

// Value implements driver.Valuer for JSONB
func (p PipelineSteps) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *PipelineSteps) Scan(value interface{}) error {
	if value == nil {
		*p = make(PipelineSteps, 0)
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*p = make(PipelineSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*p = make(PipelineSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// PipelineRun represents one end-to-end invocation of the extraction pipeline
type PipelineRun struct {
	ID                 uuid.UUID         `json:"id"`
	Status             PipelineRunStatus `json:"status"`
	CurrentStep        *string           `json:"current_step,omitempty"`
	Steps              PipelineSteps     `json:"steps"`
	ErrorMessage       *string           `json:"error_message,omitempty"`
	OrdersExtracted    int               `json:"orders_extracted"`
	RuleBodiesProduced int               `json:"rule_bodies_produced"`
	FailureCount       int               `json:"failure_count"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}
