package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackbook-pipeline/models"
)

func TestResolveIssuedDatePriorityOrder(t *testing.T) {
	rec := &models.RuleBodyRecord{
		FiledDate:     strPtr("June 27, 1975"),
		EffectiveDate: strPtr("July 1, 1975"),
	}

	issued, year, err := ResolveIssuedDate(rec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1975, time.June, 27, 0, 0, 0, 0, time.UTC), issued)
	assert.Equal(t, 1975, year)
}

func TestResolveIssuedDateFallsThroughUnparseable(t *testing.T) {
	// An unparseable higher-priority field does not block the resolution;
	// the next field in priority order is tried.
	rec := &models.RuleBodyRecord{
		FiledDate:     strPtr("on motion of the court"),
		DatedDate:     strPtr(""),
		EffectiveDate: strPtr("7/1/75"),
	}

	issued, year, err := ResolveIssuedDate(rec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1975, time.July, 1, 0, 0, 0, 0, time.UTC), issued)
	assert.Equal(t, 1975, year)
}

func TestResolveIssuedDateNoParseableField(t *testing.T) {
	rec := &models.RuleBodyRecord{
		FiledDate: strPtr("nunc pro tunc"),
	}

	_, _, err := ResolveIssuedDate(rec)
	assert.ErrorIs(t, err, ErrNoParseableDate)

	_, _, err = ResolveIssuedDate(&models.RuleBodyRecord{})
	assert.ErrorIs(t, err, ErrNoParseableDate)
}

func TestParseFlexibleDateFormats(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"June 27, 1975", time.Date(1975, time.June, 27, 0, 0, 0, 0, time.UTC)},
		{"June 27 1975", time.Date(1975, time.June, 27, 0, 0, 0, 0, time.UTC)},
		{"Jan. 5, 1983", time.Date(1983, time.January, 5, 0, 0, 0, 0, time.UTC)},
		{"Sept. 3 1991", time.Date(1991, time.September, 3, 0, 0, 0, 0, time.UTC)},
		{"7/1/75", time.Date(1975, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{"1/2/05", time.Date(2005, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"1-2-1976", time.Date(1976, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"12/31/2024", time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{"2005-01-02", time.Date(2005, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"  July  1, 1975.  ", time.Date(1975, time.July, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, ok := parseFlexibleDate(tc.raw)
		require.Truef(t, ok, "expected %q to parse", tc.raw)
		assert.Equalf(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestParseFlexibleDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "upon further order", "13/45/75"} {
		_, ok := parseFlexibleDate(raw)
		assert.Falsef(t, ok, "expected %q not to parse", raw)
	}
}
