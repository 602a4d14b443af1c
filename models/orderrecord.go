package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderRecord represents one rulemaking order extracted from a chunk of a
// Blackbook volume. The four date fields are raw text spans exactly as the
// extraction service returned them; they are parsed downstream, never trusted.
type OrderRecord struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Title      string    `json:"title"`

	FiledDate     *string `json:"filed_date,omitempty"`
	DatedDate     *string `json:"dated_date,omitempty"`
	ApprovedDate  *string `json:"approved_date,omitempty"`
	EffectiveDate *string `json:"effective_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DateFields returns the raw date fields in issuance-priority order:
// filed, dated, approved, effective.
func (r *OrderRecord) DateFields() []*string {
	return []*string{r.FiledDate, r.DatedDate, r.ApprovedDate, r.EffectiveDate}
}

// DateFieldCount returns the number of non-null date fields. A record with
// zero date fields is an extraction failure, not a valid record.
func (r *OrderRecord) DateFieldCount() int {
	count := 0
	for _, f := range r.DateFields() {
		if f != nil && *f != "" {
			count++
		}
	}
	return count
}
