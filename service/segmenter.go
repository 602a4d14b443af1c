package service

import (
	"errors"
	"fmt"
	"regexp"

	"blackbook-pipeline/models"
)

const (
	// DefaultChunkSize is the target chunk size in characters. Actual
	// chunks run past the target to the next Effective marker line.
	DefaultChunkSize = 5000

	// markerLookaheadFactor bounds how far past the target size the
	// segmenter will scan for a marker before declaring the document
	// malformed.
	markerLookaheadFactor = 2
)

// effectiveMarkerRe matches the "Effective ..." line that closes every order
// record in a Blackbook volume. Chunk boundaries are always placed at the
// end of such a line so no record is split between chunks.
var effectiveMarkerRe = regexp.MustCompile(`(?mi)^[ \t]*Effective\b[^\n]*`)

// ErrMarkerNotFound is returned when no Effective marker occurs within the
// bounded lookahead past a chunk's target boundary.
var ErrMarkerNotFound = errors.New("no effective marker within lookahead")

// ChunkDocument splits a source document into chunks covering it exactly
// once with no gaps. Each chunk ends at the end of an Effective marker line,
// except the final chunk which runs to end-of-document.
func ChunkDocument(doc *models.SourceDocument, targetSize int) ([]models.Chunk, error) {
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}

	text := doc.Content
	if len(text) == 0 {
		return nil, errors.New("empty document")
	}

	var chunks []models.Chunk
	cursor := 0
	index := 0
	lookahead := targetSize * markerLookaheadFactor

	for cursor < len(text) {
		cut := cursor + targetSize
		if cut >= len(text) {
			chunks = append(chunks, newChunk(doc, index, cursor, len(text)))
			break
		}

		// The marker pattern is line-anchored, but slicing at cut can land
		// mid-line and make the slice start look like a line start. Scan
		// from the next real line boundary instead.
		scanStart := cut
		for scanStart < len(text) && text[scanStart-1] != '\n' {
			scanStart++
		}

		windowEnd := cut + lookahead
		if windowEnd > len(text) {
			windowEnd = len(text)
		}

		var loc []int
		if scanStart < windowEnd {
			loc = effectiveMarkerRe.FindStringIndex(text[scanStart:windowEnd])
		}
		if loc == nil {
			if cut+lookahead >= len(text) {
				// Document ends inside the lookahead; the final chunk
				// may legitimately have no trailing marker.
				chunks = append(chunks, newChunk(doc, index, cursor, len(text)))
				break
			}
			return nil, fmt.Errorf("%w: document %s, offset %d", ErrMarkerNotFound, doc.Label, cut)
		}

		end := scanStart + loc[1]
		// Include the trailing newline so the next chunk starts on a
		// fresh line.
		if end < len(text) && text[end] == '\n' {
			end++
		}

		chunks = append(chunks, newChunk(doc, index, cursor, end))
		cursor = end
		index++
	}

	return chunks, nil
}

func newChunk(doc *models.SourceDocument, index, start, end int) models.Chunk {
	return models.Chunk{
		DocumentID: doc.ID,
		Index:      index,
		Start:      start,
		End:        end,
		Text:       doc.Content[start:end],
	}
}
