package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackbook-pipeline/models"
)

func testDocument(content string) *models.SourceDocument {
	return &models.SourceDocument{
		ID:      uuid.New(),
		Label:   "Blackbook 1961-1975",
		Content: content,
	}
}

// orderBlock builds one order record block ending on an Effective line.
func orderBlock(n int) string {
	return fmt.Sprintf("IN THE MATTER OF ORDER %d\nAmending the Rules of Civil Procedure.\nEffective July 1, 19%02d.\n", n, 60+n%10)
}

func TestChunkDocumentSmallDocumentSingleChunk(t *testing.T) {
	doc := testDocument(orderBlock(1))

	chunks, err := ChunkDocument(doc, DefaultChunkSize)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, doc.ID, chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(doc.Content), chunks[0].End)
	assert.Equal(t, doc.Content, chunks[0].Text)
}

func TestChunkDocumentCoversContentExactly(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString(orderBlock(i))
	}
	doc := testDocument(sb.String())

	chunks, err := ChunkDocument(doc, 200)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var rebuilt strings.Builder
	cursor := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, cursor, c.Start)
		assert.Equal(t, doc.Content[c.Start:c.End], c.Text)
		rebuilt.WriteString(c.Text)
		cursor = c.End
	}
	assert.Equal(t, doc.Content, rebuilt.String())

	// Every chunk but the last ends right after an Effective marker line.
	for _, c := range chunks[:len(chunks)-1] {
		lines := strings.Split(strings.TrimRight(c.Text, "\n"), "\n")
		last := lines[len(lines)-1]
		assert.Truef(t, strings.HasPrefix(strings.TrimLeft(last, " \t"), "Effective"),
			"chunk %d ends with %q", c.Index, last)
	}
}

func TestChunkDocumentMarkerNotFound(t *testing.T) {
	doc := testDocument(strings.Repeat("x", 100))

	_, err := ChunkDocument(doc, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestChunkDocumentTrailingTextWithoutMarker(t *testing.T) {
	// A short marker-free tail inside the lookahead window becomes the
	// final chunk instead of an error.
	content := orderBlock(1) + "APPENDIX\nHistorical notes.\n"
	doc := testDocument(content)

	chunks, err := ChunkDocument(doc, len(orderBlock(1))-20)
	require.NoError(t, err)

	last := chunks[len(chunks)-1]
	assert.Equal(t, len(content), last.End)
	assert.True(t, strings.HasSuffix(last.Text, "Historical notes.\n"))
}

func TestChunkDocumentIgnoresMidLineEffective(t *testing.T) {
	// The target boundary lands in the middle of a line whose remainder
	// begins with "Effective". That word is not at a real line start and
	// must not be mistaken for a marker; the boundary goes to the true
	// marker line that follows.
	body := strings.Repeat("a", 100)
	midLine := "Effective immediately the clerk shall docket the filing\n"
	marker := "Effective July 1, 1975.\n"
	tail := orderBlock(2)
	doc := testDocument(body + midLine + marker + tail)

	chunks, err := ChunkDocument(doc, 100)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	first := chunks[0]
	assert.Equal(t, len(body)+len(midLine)+len(marker), first.End)
	assert.True(t, strings.HasSuffix(first.Text, marker))
}

func TestChunkDocumentEmptyDocument(t *testing.T) {
	doc := testDocument("")

	_, err := ChunkDocument(doc, DefaultChunkSize)
	require.Error(t, err)
}
