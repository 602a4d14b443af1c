package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing status of a source document
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusConverted DocumentStatus = "converted"
	DocumentStatusCleaned   DocumentStatus = "cleaned"
	DocumentStatusExtracted DocumentStatus = "extracted"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// SourceDocument represents one converted Blackbook volume.
// A document is immutable once produced by the conversion service; the
// overlap resolver emits a new document rather than mutating this one.
type SourceDocument struct {
	ID          uuid.UUID      `json:"id"`
	Label       string         `json:"label"` // coverage-period label, e.g. "Blackbook 1961-1975"
	Filename    string         `json:"filename"`
	PeriodStart int            `json:"period_start"` // first covered year
	PeriodEnd   int            `json:"period_end"`   // last covered year
	Content     string         `json:"content"`
	PageOffsets []int32        `json:"page_offsets"` // character offset where each page begins
	StoragePath *string        `json:"storage_path,omitempty"`
	Status      DocumentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is a segment of a source document handed to the extraction service.
// Chunks exist only during extraction and are never persisted.
type Chunk struct {
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"index"`
	Start      int       `json:"start"` // inclusive character offset
	End        int       `json:"end"`   // exclusive character offset
	Text       string    `json:"text"`
}
