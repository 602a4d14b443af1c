package service

import (
	"context"
	"fmt"
	"strings"

	"blackbook-pipeline/extraction"
	"blackbook-pipeline/models"
)

// arizonaCounties lists all fifteen counties. County names appear in rule
// titles either bare ("Pima County") or possessive ("Maricopa County
// Superior Court"), so matching is on the county name followed by "county".
var arizonaCounties = []string{
	"apache",
	"cochise",
	"coconino",
	"gila",
	"graham",
	"greenlee",
	"la paz",
	"maricopa",
	"mohave",
	"navajo",
	"pima",
	"pinal",
	"santa cruz",
	"yavapai",
	"yuma",
}

var trialCourtTerms = []string{
	"superior court",
	"justice court",
	"justice of the peace",
	"municipal court",
	"city court",
}

// Classifier applies three independent local-rule strategies to each
// rule-body record. All three labels are recorded side by side; none is
// authoritative and downstream consumers choose which to trust.
type Classifier struct {
	extractor extraction.Service
}

func NewClassifier(extractor extraction.Service) *Classifier {
	return &Classifier{extractor: extractor}
}

// Classify fills in the three local labels and the statewide trial-court
// flag on rec. All strategies read the full record text, title plus body
// of rules. The model strategy short-circuits on the word "local" anywhere
// in that text, so the extraction service is only consulted for records
// where the answer is genuinely uncertain.
func (c *Classifier) Classify(ctx context.Context, rec *models.RuleBodyRecord) error {
	text := rec.Title + "\n" + rec.BodyOfRules
	lower := strings.ToLower(text)

	rec.LocalStrict = strings.Contains(lower, "local rules")
	rec.LocalExpanded = mentionsCounty(lower) || mentionsTrialCourt(lower)

	if strings.Contains(lower, "local") {
		rec.LocalLLM = true
	} else {
		local, err := c.extractor.ClassifyLocal(ctx, text)
		if err != nil {
			return fmt.Errorf("classify rule body %s: %w", rec.ID, err)
		}
		rec.LocalLLM = local
	}

	// Derived from the expanded strategy: a statewide record that is not a
	// Supreme Court rule and not an exclusively appellate one.
	rec.StatewideTrialCourtRule = !rec.LocalExpanded &&
		!strings.Contains(lower, "rules of the supreme court") &&
		(!strings.Contains(lower, "appellate") || strings.Contains(lower, "superior"))
	return nil
}

// Disagreements reports the records whose three strategies do not agree.
// These are the records a reviewer should look at first.
func Disagreements(records []*models.RuleBodyRecord) []*models.RuleBodyRecord {
	var out []*models.RuleBodyRecord
	for _, rec := range records {
		if rec.StrategiesDisagree() {
			out = append(out, rec)
		}
	}
	return out
}

func mentionsCounty(lower string) bool {
	for _, county := range arizonaCounties {
		if strings.Contains(lower, county+" county") {
			return true
		}
	}
	return false
}

func mentionsTrialCourt(lower string) bool {
	for _, term := range trialCourtTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
