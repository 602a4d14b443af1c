package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"blackbook-pipeline/models"

	"github.com/google/uuid"
)

// CutoverMarker is the final pre-cutover entry in the overlapping Blackbook
// volume: the mid-1975 STATE BAR order. Everything up to and including this
// entry duplicates the earlier volume's coverage and is removed.
const CutoverMarker = `STATE BAR - ADMISSION AND DISCIPLINE OF ATTORNEYS: "Amending Rules
29 (a) and (b)"

Dated June 27, 1975.
Should DR1.13
Effective July 1, 1975.`

// CutoverYear is the first year the overlapping volume actually covers
// once its duplicated prefix is removed.
const CutoverYear = 1975

// ErrOverlapBoundaryNotFound is returned when the cutover marker cannot be
// located. The stage halts rather than guessing; a silent partial clean
// would corrupt the dataset.
var ErrOverlapBoundaryNotFound = errors.New("overlap cutover marker not found")

// CutoverLabel returns the corrected coverage label for an overlapping
// volume, e.g. "1971-1980" becomes "1975-1980".
func CutoverLabel(doc *models.SourceDocument) string {
	return fmt.Sprintf("%d-%d", CutoverYear, doc.PeriodEnd)
}

// StripOverlap removes all content up to and including the cutover marker
// from a document whose coverage period overlaps an earlier volume, and
// relabels the result with its true coverage period. The input document is
// not mutated; a new generation is returned.
func StripOverlap(doc *models.SourceDocument, marker, newLabel string, newPeriodStart int) (*models.SourceDocument, error) {
	markerPos := strings.Index(doc.Content, marker)
	if markerPos == -1 {
		return nil, fmt.Errorf("%w: document %s", ErrOverlapBoundaryNotFound, doc.Label)
	}

	markerEnd := markerPos + len(marker)
	rest := strings.TrimLeft(doc.Content[markerEnd:], "\n")
	// Offsets shift only by the removed prefix; trailing trim does not move
	// page starts.
	prefixRemoved := len(doc.Content) - len(rest)
	cleaned := strings.TrimRight(rest, " \n")

	now := time.Now()
	out := &models.SourceDocument{
		ID:          uuid.New(),
		Label:       newLabel,
		Filename:    doc.Filename,
		PeriodStart: newPeriodStart,
		PeriodEnd:   doc.PeriodEnd,
		Content:     cleaned,
		PageOffsets: shiftPageOffsets(doc.PageOffsets, prefixRemoved),
		StoragePath: doc.StoragePath,
		Status:      models.DocumentStatusCleaned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return out, nil
}

// shiftPageOffsets drops offsets inside the removed prefix and shifts the
// remainder so they index into the cleaned content.
func shiftPageOffsets(offsets []int32, removed int) []int32 {
	var out []int32
	for _, off := range offsets {
		shifted := int(off) - removed
		if shifted < 0 {
			continue
		}
		out = append(out, int32(shifted))
	}
	// The cleaned document always starts at a page position.
	if len(out) == 0 || out[0] != 0 {
		out = append([]int32{0}, out...)
	}
	return out
}
