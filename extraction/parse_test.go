package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArrayBare(t *testing.T) {
	out, err := extractJSONArray(`[{"order_title": "x"}]`)
	require.NoError(t, err)
	assert.Equal(t, `[{"order_title": "x"}]`, out)
}

func TestExtractJSONArrayCodeFence(t *testing.T) {
	response := "```json\n[\n  {\"order_title\": \"x\"}\n]\n```"
	out, err := extractJSONArray(response)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"order_title": "x"}]`, out)
}

func TestExtractJSONArraySurroundingProse(t *testing.T) {
	response := `Here are the extracted records:

[{"order_title": "x"}]

Let me know if you need anything else.`
	out, err := extractJSONArray(response)
	require.NoError(t, err)
	assert.Equal(t, `[{"order_title": "x"}]`, out)
}

func TestExtractJSONArrayNoArray(t *testing.T) {
	_, err := extractJSONArray("I could not find any orders in this text.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestParseOrdersResponseValid(t *testing.T) {
	response := `[
		{"order_title": "Rules of Civil Procedure", "filed_date": "June 27, 1975", "effective_date": "July 1, 1975"},
		{"order_title": "Rules of the Supreme Court", "dated_date": "7/1/75", "approved_date": null}
	]`

	records, err := parseOrdersResponse(response)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Rules of Civil Procedure", records[0].Title)
	require.NotNil(t, records[0].FiledDate)
	assert.Equal(t, "June 27, 1975", *records[0].FiledDate)
	assert.Nil(t, records[0].DatedDate)

	assert.Equal(t, "Rules of the Supreme Court", records[1].Title)
	require.NotNil(t, records[1].DatedDate)
	assert.Nil(t, records[1].ApprovedDate)
}

func TestParseOrdersResponseEmptyArray(t *testing.T) {
	records, err := parseOrdersResponse("[]")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseOrdersResponseMissingTitle(t *testing.T) {
	_, err := parseOrdersResponse(`[{"effective_date": "July 1, 1975"}]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestParseOrdersResponseNoDates(t *testing.T) {
	_, err := parseOrdersResponse(`[{"order_title": "Rules of Civil Procedure"}]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestParseOrdersResponseWhitespaceDatesAreNull(t *testing.T) {
	_, err := parseOrdersResponse(`[{"order_title": "x", "filed_date": "  "}]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestParseBodiesResponse(t *testing.T) {
	bodies, err := parseBodiesResponse("```json\n[\"Rules of Civil Procedure\", \" Rules of Criminal Procedure \", \"\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rules of Civil Procedure", "Rules of Criminal Procedure"}, bodies)
}

func TestParseBodiesResponseEmptyList(t *testing.T) {
	_, err := parseBodiesResponse(`["", "  "]`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestValidateOrderFields(t *testing.T) {
	eff := "July 1, 1975"
	require.NoError(t, ValidateOrderFields(OrderFields{Title: "x", EffectiveDate: &eff}))

	err := ValidateOrderFields(OrderFields{EffectiveDate: &eff})
	assert.ErrorIs(t, err, ErrSchemaValidation)

	err = ValidateOrderFields(OrderFields{Title: "x"})
	assert.ErrorIs(t, err, ErrSchemaValidation)
}
