package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"blackbook-pipeline/extraction"
	"blackbook-pipeline/models"
)

const DefaultExtractConcurrency = 4

// Extractor runs order extraction over a document's chunks with a bounded
// worker pool. Chunk failures are isolated: one bad chunk produces a
// failure entry, not an aborted document.
type Extractor struct {
	extractor   extraction.Service
	concurrency int
}

type ExtractorOption func(*Extractor)

func WithConcurrency(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewExtractor(extractor extraction.Service, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		extractor:   extractor,
		concurrency: DefaultExtractConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractDocument extracts order records from every chunk of a document.
// Chunks are processed concurrently but results are merged in chunk order,
// so output ordering is deterministic regardless of worker scheduling.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *models.SourceDocument, chunks []models.Chunk) ([]*models.OrderRecord, []*models.PipelineFailure, error) {
	perChunk := make([][]extraction.OrderFields, len(chunks))
	var (
		mu       sync.Mutex
		failures []*models.PipelineFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			fields, err := e.extractor.ExtractOrders(gctx, chunk.Text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("Extraction failed for document %s chunk %d: %v", doc.ID, chunk.Index, err)
				mu.Lock()
				failures = append(failures, chunkFailure(doc.ID, chunk.Index, err))
				mu.Unlock()
				return nil
			}
			perChunk[i] = fields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extract document %s: %w", doc.ID, err)
	}

	// Merge single-threaded, in chunk order.
	var records []*models.OrderRecord
	for i, fields := range perChunk {
		for _, f := range fields {
			rec := &models.OrderRecord{
				ID:            uuid.New(),
				DocumentID:    doc.ID,
				ChunkIndex:    chunks[i].Index,
				Title:         f.Title,
				FiledDate:     f.FiledDate,
				DatedDate:     f.DatedDate,
				ApprovedDate:  f.ApprovedDate,
				EffectiveDate: f.EffectiveDate,
			}
			if rec.DateFieldCount() == 0 {
				failures = append(failures, &models.PipelineFailure{
					ID:         uuid.New(),
					Stage:      models.StageExtraction,
					DocumentID: &doc.ID,
					ChunkIndex: &rec.ChunkIndex,
					Subject:    rec.Title,
					Reason:     "extracted order has no date fields",
				})
				continue
			}
			records = append(records, rec)
		}
	}
	return records, failures, nil
}

func chunkFailure(docID uuid.UUID, chunkIndex int, err error) *models.PipelineFailure {
	return &models.PipelineFailure{
		ID:         uuid.New(),
		Stage:      models.StageExtraction,
		DocumentID: &docID,
		ChunkIndex: &chunkIndex,
		Subject:    fmt.Sprintf("chunk %d", chunkIndex),
		Reason:     err.Error(),
	}
}
