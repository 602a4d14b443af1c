package models

import (
	"time"

	"github.com/google/uuid"
)

// RuleBodyRecord is the atomic unit of the final dataset: one order applied
// to one body of rules. Every RuleBodyRecord derived from the same
// OrderRecord carries identical date fields, order number, and bracket codes.
type RuleBodyRecord struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Title      string    `json:"title"`

	BodyOfRules  string   `json:"body_of_rules"`
	OrderNumber  *string  `json:"order_number,omitempty"`
	BracketCodes []string `json:"bracket_codes"`

	FiledDate     *string `json:"filed_date,omitempty"`
	DatedDate     *string `json:"dated_date,omitempty"`
	ApprovedDate  *string `json:"approved_date,omitempty"`
	EffectiveDate *string `json:"effective_date,omitempty"`

	// Derived via priority resolution over the raw date fields. Nil only
	// when no field parsed; the record is kept and flagged, never dropped.
	IssuedDate *time.Time `json:"issued_date,omitempty"`
	IssuedYear *int       `json:"issued_year,omitempty"`

	// Three independent local/statewide labels. All three are retained;
	// there is deliberately no single "final" label.
	LocalStrict   bool `json:"local_strict"`
	LocalExpanded bool `json:"local_expanded"`
	LocalLLM      bool `json:"local_llm"`

	StatewideTrialCourtRule bool `json:"statewide_trial_court_rule"`

	CreatedAt time.Time `json:"created_at"`
}

// DateFields returns the raw date fields in issuance-priority order.
func (r *RuleBodyRecord) DateFields() []*string {
	return []*string{r.FiledDate, r.DatedDate, r.ApprovedDate, r.EffectiveDate}
}

// DateFieldCount returns the number of non-null date fields.
func (r *RuleBodyRecord) DateFieldCount() int {
	count := 0
	for _, f := range r.DateFields() {
		if f != nil && *f != "" {
			count++
		}
	}
	return count
}

// StrategyLabels returns the three local labels in a fixed order
// (strict, expanded, model). Used by the disagreement report.
func (r *RuleBodyRecord) StrategyLabels() [3]bool {
	return [3]bool{r.LocalStrict, r.LocalExpanded, r.LocalLLM}
}

// StrategiesDisagree reports whether the three classification strategies
// produced at least two different labels for this record.
func (r *RuleBodyRecord) StrategiesDisagree() bool {
	labels := r.StrategyLabels()
	return labels[0] != labels[1] || labels[1] != labels[2]
}
