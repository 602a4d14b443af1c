package service

import (
	"regexp"
	"strings"

	"blackbook-pipeline/models"
)

var punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// NormalizeTitle produces the title half of the deduplication key:
// lower-cased, punctuation stripped, whitespace runs collapsed.
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = punctuationRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// normalizeEffectiveDate produces the date half of the key. A parseable
// date is reduced to its calendar day so "July 1, 1975" and "7/1/75" key
// identically; an unparseable span falls back to normalized text.
func normalizeEffectiveDate(effective *string) string {
	if effective == nil || *effective == "" {
		return ""
	}
	if t, ok := parseFlexibleDate(*effective); ok {
		return t.Format("2006-01-02")
	}
	return NormalizeTitle(*effective)
}

// OrderKey is the coarse order-level deduplication key applied after
// extraction.
func OrderKey(r *models.OrderRecord) string {
	return NormalizeTitle(r.Title) + "|" + normalizeEffectiveDate(r.EffectiveDate)
}

// RuleBodyKey is the finer key applied after rule-body splitting; it adds
// the body of rules so split-introduced duplicates collapse without merging
// distinct bodies.
func RuleBodyKey(r *models.RuleBodyRecord) string {
	return NormalizeTitle(r.Title) + "|" + normalizeEffectiveDate(r.EffectiveDate) + "|" + NormalizeTitle(r.BodyOfRules)
}

// Deduplicate keeps one representative per key. Tie-break is deterministic
// and stable across runs even though the duplicate sets themselves vary
// with extractor non-determinism: prefer the record with strictly more
// non-null date fields, then the one first encountered in source order.
func Deduplicate[T any](records []T, key func(T) string, dateFieldCount func(T) int) []T {
	type kept struct {
		record   T
		position int
		dates    int
	}

	byKey := make(map[string]*kept, len(records))
	order := make([]string, 0, len(records))

	for i, rec := range records {
		k := key(rec)
		existing, ok := byKey[k]
		if !ok {
			byKey[k] = &kept{record: rec, position: i, dates: dateFieldCount(rec)}
			order = append(order, k)
			continue
		}
		if dateFieldCount(rec) > existing.dates {
			// Position is deliberately kept from the first-seen record so
			// output order is stable.
			existing.record = rec
			existing.dates = dateFieldCount(rec)
		}
	}

	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k].record)
	}
	return out
}

// DeduplicateOrders applies the coarse pass over extracted order records.
func DeduplicateOrders(records []*models.OrderRecord) []*models.OrderRecord {
	return Deduplicate(records, OrderKey, func(r *models.OrderRecord) int { return r.DateFieldCount() })
}

// DeduplicateRuleBodies applies the conservative pass after splitting.
func DeduplicateRuleBodies(records []*models.RuleBodyRecord) []*models.RuleBodyRecord {
	return Deduplicate(records, RuleBodyKey, func(r *models.RuleBodyRecord) int { return r.DateFieldCount() })
}
