package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TwoDigitYearPivot disambiguates two-digit years: yy < 40 resolves to
// 20yy, otherwise 19yy. The corpus spans 1956-2024, so 40 is safe on both
// sides.
const TwoDigitYearPivot = 40

// ErrNoParseableDate is returned when none of a record's date fields parse.
// The record is retained with a nil issued date, never dropped.
var ErrNoParseableDate = errors.New("no parseable date field")

// dateLayouts are tried in order against each normalized date string.
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2006-01-02",
}

// twoDigitYearRe matches numeric M/D/YY dates so the century can be fixed
// before parsing.
var twoDigitYearRe = regexp.MustCompile(`^(\d{1,2})([/-])(\d{1,2})[/-](\d{2})$`)

// Dated is satisfied by records carrying raw date spans in priority order.
type Dated interface {
	DateFields() []*string
}

// ResolveIssuedDate computes the canonical issued date for a record by
// trying the raw date fields in fixed priority order: filed, dated,
// approved, effective. The first field that parses wins; lower-priority
// fields are never consulted after a higher-priority field parses.
func ResolveIssuedDate(rec Dated) (time.Time, int, error) {
	for _, field := range rec.DateFields() {
		if field == nil || *field == "" {
			continue
		}
		if t, ok := parseFlexibleDate(*field); ok {
			return t, t.Year(), nil
		}
	}
	return time.Time{}, 0, ErrNoParseableDate
}

// parseFlexibleDate parses one raw date span against the supported formats:
// numeric M/D/Y with two- or four-digit year and the textual
// "Month Day, Year" form.
func parseFlexibleDate(raw string) (time.Time, bool) {
	s := normalizeDateText(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := twoDigitYearRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[4])
		if year < TwoDigitYearPivot {
			year += 2000
		} else {
			year += 1900
		}
		s = fmt.Sprintf("%s%s%s%s%d", m[1], m[2], m[3], m[2], year)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeDateText strips the noise the extraction service passes through:
// surrounding whitespace, trailing periods, abbreviation dots, collapsed
// runs of spaces.
func normalizeDateText(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".")
	s = strings.ReplaceAll(s, "Jan.", "Jan")
	s = strings.ReplaceAll(s, "Feb.", "Feb")
	s = strings.ReplaceAll(s, "Mar.", "Mar")
	s = strings.ReplaceAll(s, "Apr.", "Apr")
	s = strings.ReplaceAll(s, "Jun.", "Jun")
	s = strings.ReplaceAll(s, "Jul.", "Jul")
	s = strings.ReplaceAll(s, "Aug.", "Aug")
	s = strings.ReplaceAll(s, "Sept.", "Sep")
	s = strings.ReplaceAll(s, "Sept ", "Sep ")
	s = strings.ReplaceAll(s, "Sep.", "Sep")
	s = strings.ReplaceAll(s, "Oct.", "Oct")
	s = strings.ReplaceAll(s, "Nov.", "Nov")
	s = strings.ReplaceAll(s, "Dec.", "Dec")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
