package extraction

import (
	"context"
	"errors"
	"fmt"
)

// OrderFields is the fixed output schema for order extraction: a title plus
// four optional raw date strings. All fields are untrusted text; dates are
// re-parsed downstream, never assumed canonical.
type OrderFields struct {
	Title         string  `json:"order_title"`
	FiledDate     *string `json:"filed_date"`
	DatedDate     *string `json:"dated_date"`
	ApprovedDate  *string `json:"approved_date"`
	EffectiveDate *string `json:"effective_date"`
}

// Service is the capability interface over the structured-extraction
// service. Implementations are non-deterministic across runs; callers
// compensate with deterministic deduplication and re-validation downstream.
type Service interface {
	// ExtractOrders pulls discrete order records from a chunk of free text.
	// An empty slice is a valid result for a chunk with no orders.
	ExtractOrders(ctx context.Context, text string) ([]OrderFields, error)

	// SplitRuleBodies identifies the rule-system names enumerated in an
	// order title. Used only when the deterministic title parse is
	// ambiguous; never used to regenerate dates or order numbers.
	SplitRuleBodies(ctx context.Context, title string) ([]string, error)

	// ClassifyLocal returns true if the order text describes a local
	// (county/court-specific) rule rather than a statewide one.
	ClassifyLocal(ctx context.Context, text string) (bool, error)
}

var (
	// ErrSchemaValidation marks output that failed the fixed schema.
	// Permanent for the chunk: callers must not retry.
	ErrSchemaValidation = errors.New("extraction output failed schema validation")

	// ErrServiceUnavailable marks a transient service error after retries
	// were exhausted.
	ErrServiceUnavailable = errors.New("extraction service unavailable")
)

// ValidateOrderFields checks one extracted record against the schema
// contract: a non-empty title and at least one non-null date field.
func ValidateOrderFields(rec OrderFields) error {
	if rec.Title == "" {
		return fmt.Errorf("%w: empty order title", ErrSchemaValidation)
	}
	if !hasAnyDate(rec) {
		return fmt.Errorf("%w: record %q has no date fields", ErrSchemaValidation, rec.Title)
	}
	return nil
}

func hasAnyDate(rec OrderFields) bool {
	for _, f := range []*string{rec.FiledDate, rec.DatedDate, rec.ApprovedDate, rec.EffectiveDate} {
		if f != nil && *f != "" {
			return true
		}
	}
	return false
}
