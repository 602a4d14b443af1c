package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"blackbook-pipeline/extraction"
	"blackbook-pipeline/models"
)

var (
	bracketCodeRe = regexp.MustCompile(`\[([A-Za-z]{1,3}-?\d{2}-?\d{4})\]`)
	orderNumberRe = regexp.MustCompile(`\b(?:No\.|Number)\s*([A-Za-z]?-?\d{2,4}-?\d{1,4})\b`)
)

// ruleBodyMarkers are phrases that identify a fragment as naming a body of
// rules on its own. A fragment that carries one of these can stand as a
// separate record; one that does not is treated as a continuation of the
// previous fragment.
var ruleBodyMarkers = []string{
	"rules of",
	"rules for",
	"rule of",
	"local rules",
	"code of",
	"canons of",
	"uniform rules",
	"supreme court rules",
}

// Splitter turns one extracted order into one record per distinct body of
// rules named in its title. The split is deterministic wherever the title's
// structure allows it; the extraction service is consulted only when the
// fragments are ambiguous.
type Splitter struct {
	extractor extraction.Service
}

func NewSplitter(extractor extraction.Service) *Splitter {
	return &Splitter{extractor: extractor}
}

// Split produces the rule-body records for a single order. Every record
// carries the parent order's date fields verbatim; only the body of rules
// differs between siblings.
func (s *Splitter) Split(ctx context.Context, order *models.OrderRecord) ([]*models.RuleBodyRecord, error) {
	title := strings.TrimSpace(order.Title)
	if title == "" {
		return nil, fmt.Errorf("order %s: empty title", order.ID)
	}

	codes := extractBracketCodes(title)
	orderNumber := extractOrderNumber(title)
	stripped := stripBracketCodes(title)

	bodies := splitDeterministic(stripped)
	if bodies == nil {
		var err error
		bodies, err = s.extractor.SplitRuleBodies(ctx, stripped)
		if err != nil {
			return nil, fmt.Errorf("split rule bodies for order %s: %w", order.ID, err)
		}
	}
	if len(bodies) == 0 {
		bodies = []string{stripped}
	}

	records := make([]*models.RuleBodyRecord, 0, len(bodies))
	for _, body := range bodies {
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		records = append(records, &models.RuleBodyRecord{
			ID:            uuid.New(),
			OrderID:       order.ID,
			DocumentID:    order.DocumentID,
			ChunkIndex:    order.ChunkIndex,
			Title:         order.Title,
			FiledDate:     order.FiledDate,
			DatedDate:     order.DatedDate,
			ApprovedDate:  order.ApprovedDate,
			EffectiveDate: order.EffectiveDate,
			BodyOfRules:   body,
			OrderNumber:   orderNumber,
			BracketCodes:  codes,
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("order %s: split produced no rule bodies", order.ID)
	}
	return records, nil
}

// splitDeterministic splits a title into rule-body fragments when the
// structure is unambiguous. It returns nil when the extraction service
// should decide instead.
func splitDeterministic(title string) []string {
	parts := splitOnSeparators(title)
	if len(parts) == 1 {
		// No separators at all: the whole title is one body.
		return []string{title}
	}

	var bodies []string
	for _, part := range parts {
		part = strings.TrimSpace(strings.Trim(part, ",;"))
		if part == "" {
			continue
		}
		if namesRuleBody(part) || len(bodies) == 0 {
			bodies = append(bodies, part)
		} else {
			// Continuation of the previous fragment, e.g. an amendment
			// clause the separator scan cut mid-phrase.
			bodies[len(bodies)-1] += " and " + part
		}
	}

	// Separators were present but at most one fragment names a body of
	// rules: the separators were internal punctuation, not a list. Defer
	// to the extraction service only when more than one fragment names a
	// body yet others remained unresolvable.
	named := 0
	for _, b := range bodies {
		if namesRuleBody(b) {
			named++
		}
	}
	switch {
	case named >= len(bodies):
		return bodies
	case named <= 1:
		return []string{title}
	default:
		return nil
	}
}

// splitOnSeparators cuts a title at "; " and at " and " when the next word
// is capitalized. A lowercase continuation after "and" is conjunction
// inside one name ("Admission and discipline"), not a list separator.
func splitOnSeparators(title string) []string {
	var parts []string
	rest := title
	for {
		cut := -1
		cutLen := 0
		for i := 0; i < len(rest); i++ {
			if rest[i] == ';' {
				cut, cutLen = i, 1
				break
			}
			if strings.HasPrefix(rest[i:], " and ") {
				next := rest[i+len(" and "):]
				if next != "" && next[0] >= 'A' && next[0] <= 'Z' {
					cut, cutLen = i, len(" and ")
					break
				}
			}
		}
		if cut == -1 {
			parts = append(parts, rest)
			return parts
		}
		parts = append(parts, rest[:cut])
		rest = rest[cut+cutLen:]
	}
}

func namesRuleBody(fragment string) bool {
	lower := strings.ToLower(fragment)
	for _, marker := range ruleBodyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func extractBracketCodes(title string) []string {
	matches := bracketCodeRe.FindAllStringSubmatch(title, -1)
	if len(matches) == 0 {
		return nil
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, m[1])
	}
	return codes
}

func stripBracketCodes(title string) string {
	stripped := bracketCodeRe.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(stripped), " ")
}

func extractOrderNumber(title string) *string {
	m := orderNumberRe.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	n := m[1]
	return &n
}
