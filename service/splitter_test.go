package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackbook-pipeline/models"
)

func splitterOrder(title string) *models.OrderRecord {
	return &models.OrderRecord{
		ID:            uuid.New(),
		DocumentID:    uuid.New(),
		ChunkIndex:    3,
		Title:         title,
		FiledDate:     strPtr("June 27, 1975"),
		DatedDate:     strPtr("June 27, 1975"),
		ApprovedDate:  strPtr("June 30, 1975"),
		EffectiveDate: strPtr("July 1, 1975"),
	}
}

func TestSplitSingleBodyWithBracketCode(t *testing.T) {
	stub := &stubExtractor{}
	splitter := NewSplitter(stub)
	order := splitterOrder("Rules of the Supreme Court [R-76-11]")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Rules of the Supreme Court", rec.BodyOfRules)
	assert.Equal(t, []string{"R-76-11"}, rec.BracketCodes)
	assert.Equal(t, order.Title, rec.Title)
	assert.Equal(t, order.ID, rec.OrderID)
	assert.Equal(t, order.DocumentID, rec.DocumentID)
	assert.Equal(t, order.ChunkIndex, rec.ChunkIndex)
	assert.Equal(t, order.FiledDate, rec.FiledDate)
	assert.Equal(t, order.DatedDate, rec.DatedDate)
	assert.Equal(t, order.ApprovedDate, rec.ApprovedDate)
	assert.Equal(t, order.EffectiveDate, rec.EffectiveDate)
	assert.Equal(t, 0, stub.splitCalls)
}

func TestSplitDeterministicThreeWay(t *testing.T) {
	stub := &stubExtractor{}
	splitter := NewSplitter(stub)
	order := splitterOrder("Rules of Civil Procedure; Rules of Criminal Procedure and Rules of the Supreme Court")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Rules of Civil Procedure", records[0].BodyOfRules)
	assert.Equal(t, "Rules of Criminal Procedure", records[1].BodyOfRules)
	assert.Equal(t, "Rules of the Supreme Court", records[2].BodyOfRules)
	assert.Equal(t, 0, stub.splitCalls)
}

func TestSplitContinuationFragmentRejoined(t *testing.T) {
	stub := &stubExtractor{}
	splitter := NewSplitter(stub)
	order := splitterOrder("Rules of Civil Procedure and Amendments Thereto and Rules of Criminal Procedure")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Rules of Civil Procedure and Amendments Thereto", records[0].BodyOfRules)
	assert.Equal(t, "Rules of Criminal Procedure", records[1].BodyOfRules)
	assert.Equal(t, 0, stub.splitCalls)
}

func TestSplitLowercaseConjunctionNotASeparator(t *testing.T) {
	stub := &stubExtractor{}
	splitter := NewSplitter(stub)
	order := splitterOrder("Rules of the Supreme Court relating to admission and discipline of attorneys")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, order.Title, records[0].BodyOfRules)
	assert.Equal(t, 0, stub.splitCalls)
}

func TestSplitAmbiguousTitleConsultsService(t *testing.T) {
	stub := &stubExtractor{
		splitFn: func(ctx context.Context, title string) ([]string, error) {
			return []string{"Rules of Civil Procedure", "Rules of Criminal Procedure"}, nil
		},
	}
	splitter := NewSplitter(stub)
	order := splitterOrder("Amendments to procedure; Rules of Civil Procedure and Rules of Criminal Procedure")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, stub.splitCalls)
	assert.Equal(t, "Rules of Civil Procedure", records[0].BodyOfRules)
	assert.Equal(t, "Rules of Criminal Procedure", records[1].BodyOfRules)
}

func TestSplitExtractsOrderNumber(t *testing.T) {
	stub := &stubExtractor{}
	splitter := NewSplitter(stub)
	order := splitterOrder("Order No. 75-12 Amending the Rules of Civil Procedure")

	records, err := splitter.Split(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].OrderNumber)
	assert.Equal(t, "75-12", *records[0].OrderNumber)
}

func TestSplitEmptyTitle(t *testing.T) {
	splitter := NewSplitter(&stubExtractor{})

	_, err := splitter.Split(context.Background(), splitterOrder("   "))
	require.Error(t, err)
}
