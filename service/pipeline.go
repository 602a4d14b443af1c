package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blackbook-pipeline/extraction"
	"blackbook-pipeline/models"
)

// DocumentStore is the document persistence the pipeline depends on.
// *repository.DocumentRepository satisfies it.
type DocumentStore interface {
	ListProcessable(ctx context.Context) ([]*models.SourceDocument, error)
	GetByLabel(ctx context.Context, label string) (*models.SourceDocument, error)
	UpdateCleaned(ctx context.Context, id uuid.UUID, label string, periodStart int, content string, pageOffsets []int32) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error
}

// OrderStore is the order-record persistence the pipeline depends on.
type OrderStore interface {
	CreateBatch(ctx context.Context, recs []*models.OrderRecord) error
	DeleteAll(ctx context.Context) error
}

// RuleBodyStore is the rule-body persistence the pipeline depends on.
type RuleBodyStore interface {
	CreateBatch(ctx context.Context, recs []*models.RuleBodyRecord) error
	DeleteAll(ctx context.Context) error
}

// FailureStore is the audit-log persistence the pipeline depends on.
type FailureStore interface {
	Create(ctx context.Context, f *models.PipelineFailure) error
}

// RunStore is the run persistence the pipeline depends on.
type RunStore interface {
	Create(ctx context.Context, run *models.PipelineRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PipelineRunStatus) error
	UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.PipelineSteps) error
	Complete(ctx context.Context, id uuid.UUID, orders, ruleBodies, failures int) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// PipelineService orchestrates a full run over the converted archive
// volumes: overlap cleanup, segmentation, extraction, deduplication,
// rule-body splitting, date resolution and classification.
type PipelineService struct {
	docRepo      DocumentStore
	orderRepo    OrderStore
	ruleBodyRepo RuleBodyStore
	failureRepo  FailureStore
	runRepo      RunStore
	db           *pgxpool.Pool
	extractor    extraction.Service
	chunkSize    int
	concurrency  int
	overlapLabel string
}

// PipelineServiceOption is a functional option for PipelineService
type PipelineServiceOption func(*PipelineService)

// PipelineWithDocumentRepository sets the source document repository
func PipelineWithDocumentRepository(repo DocumentStore) PipelineServiceOption {
	return func(s *PipelineService) {
		s.docRepo = repo
	}
}

// PipelineWithOrderRecordRepository sets the order record repository
func PipelineWithOrderRecordRepository(repo OrderStore) PipelineServiceOption {
	return func(s *PipelineService) {
		s.orderRepo = repo
	}
}

// PipelineWithRuleBodyRepository sets the rule body repository
func PipelineWithRuleBodyRepository(repo RuleBodyStore) PipelineServiceOption {
	return func(s *PipelineService) {
		s.ruleBodyRepo = repo
	}
}

// PipelineWithFailureRepository sets the failure log repository
func PipelineWithFailureRepository(repo FailureStore) PipelineServiceOption {
	return func(s *PipelineService) {
		s.failureRepo = repo
	}
}

// PipelineWithRunRepository sets the pipeline run repository
func PipelineWithRunRepository(repo RunStore) PipelineServiceOption {
	return func(s *PipelineService) {
		s.runRepo = repo
	}
}

// PipelineWithDatabase sets the database pool
func PipelineWithDatabase(db *pgxpool.Pool) PipelineServiceOption {
	return func(s *PipelineService) {
		s.db = db
	}
}

// PipelineWithExtractionService sets the extraction service
func PipelineWithExtractionService(extractor extraction.Service) PipelineServiceOption {
	return func(s *PipelineService) {
		s.extractor = extractor
	}
}

// PipelineWithChunkSize overrides the target chunk size
func PipelineWithChunkSize(size int) PipelineServiceOption {
	return func(s *PipelineService) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// PipelineWithConcurrency overrides the extraction worker count
func PipelineWithConcurrency(n int) PipelineServiceOption {
	return func(s *PipelineService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// PipelineWithOverlapLabel names the volume whose leading pages duplicate
// the previous volume
func PipelineWithOverlapLabel(label string) PipelineServiceOption {
	return func(s *PipelineService) {
		s.overlapLabel = label
	}
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(opts ...PipelineServiceOption) *PipelineService {
	s := &PipelineService{
		chunkSize:    DefaultChunkSize,
		concurrency:  DefaultExtractConcurrency,
		overlapLabel: "1971-1980",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrNoDocuments       = errors.New("no converted documents to process")
	ErrRunNotFound       = errors.New("pipeline run not found")
	ErrRunCreationFailed = errors.New("failed to create pipeline run")
)

const (
	stepOverlap        = "Resolving Volume Overlap"
	stepSegmentation   = "Segmenting Documents"
	stepExtraction     = "Extracting Orders"
	stepDedupeOrders   = "Deduplicating Orders"
	stepSplit          = "Splitting Rule Bodies"
	stepDates          = "Resolving Dates"
	stepDedupeBodies   = "Deduplicating Rule Bodies"
	stepClassification = "Classifying Rule Bodies"
	stepStore          = "Storing Results"
)

var pipelineStepNames = []string{
	stepOverlap,
	stepSegmentation,
	stepExtraction,
	stepDedupeOrders,
	stepSplit,
	stepDates,
	stepDedupeBodies,
	stepClassification,
	stepStore,
}

// StartRunResult represents the result of creating a pipeline run
type StartRunResult struct {
	RunID uuid.UUID
}

// StartRun creates a pipeline run and returns immediately. The actual work
// happens in ProcessRun, which is launched in the background by the caller.
func (s *PipelineService) StartRun(ctx context.Context) (*StartRunResult, error) {
	if s.runRepo == nil {
		return nil, errors.New("run repository not set")
	}
	if s.docRepo == nil {
		return nil, errors.New("document repository not set")
	}

	docs, err := s.docRepo.ListProcessable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	steps := make(models.PipelineSteps, 0, len(pipelineStepNames))
	for _, name := range pipelineStepNames {
		steps = append(steps, models.PipelineStep{Name: name, Status: "pending"})
	}

	run := &models.PipelineRun{
		ID:     uuid.New(),
		Status: models.RunStatusPending,
		Steps:  steps,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, ErrRunCreationFailed
	}

	return &StartRunResult{RunID: run.ID}, nil
}

// GetRunStatus retrieves a pipeline run
func (s *PipelineService) GetRunStatus(ctx context.Context, runID uuid.UUID) (*models.PipelineRun, error) {
	if s.runRepo == nil {
		return nil, errors.New("run repository not set")
	}
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ProcessRun performs the pipeline work in the background. It can take
// many minutes on a full archive, so it is never called from a handler
// directly.
func (s *PipelineService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	if s.runRepo == nil || s.docRepo == nil || s.orderRepo == nil ||
		s.ruleBodyRepo == nil || s.failureRepo == nil {
		return errors.New("pipeline repositories not set")
	}
	if s.extractor == nil {
		return errors.New("extraction service not set")
	}

	if err := s.runRepo.UpdateStatus(ctx, runID, models.RunStatusInProgress); err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	var failures []*models.PipelineFailure

	// 1. Overlap resolution
	if err := s.updateStepStatus(ctx, runID, stepOverlap, "in_progress"); err != nil {
		return err
	}
	if err := s.resolveOverlap(ctx); err != nil {
		s.recordFailures(ctx, runID, []*models.PipelineFailure{{
			ID:      uuid.New(),
			Stage:   models.StageOverlap,
			Subject: s.overlapLabel,
			Reason:  err.Error(),
		}})
		s.markRunFailed(ctx, runID, "overlap resolution failed: "+err.Error())
		return fmt.Errorf("overlap resolution failed: %w", err)
	}
	if err := s.updateStepStatus(ctx, runID, stepOverlap, "completed"); err != nil {
		return err
	}

	// 2. Segmentation
	if err := s.updateStepStatus(ctx, runID, stepSegmentation, "in_progress"); err != nil {
		return err
	}
	docs, err := s.docRepo.ListProcessable(ctx)
	if err != nil {
		s.markRunFailed(ctx, runID, "failed to list documents: "+err.Error())
		return err
	}
	chunksByDoc := make(map[uuid.UUID][]models.Chunk, len(docs))
	for _, doc := range docs {
		chunks, err := ChunkDocument(doc, s.chunkSize)
		if err != nil {
			failures = append(failures, &models.PipelineFailure{
				ID:         uuid.New(),
				Stage:      models.StageSegmentation,
				DocumentID: &doc.ID,
				Subject:    doc.Label,
				Reason:     err.Error(),
			})
			continue
		}
		chunksByDoc[doc.ID] = chunks
	}
	if err := s.updateStepStatus(ctx, runID, stepSegmentation, "completed"); err != nil {
		return err
	}

	// 3. Extraction
	if err := s.updateStepStatus(ctx, runID, stepExtraction, "in_progress"); err != nil {
		return err
	}
	ext := NewExtractor(s.extractor, WithConcurrency(s.concurrency))
	var orders []*models.OrderRecord
	for _, doc := range docs {
		chunks, ok := chunksByDoc[doc.ID]
		if !ok {
			continue
		}
		recs, extFailures, err := ext.ExtractDocument(ctx, doc, chunks)
		if err != nil {
			s.markRunFailed(ctx, runID, fmt.Sprintf("extraction failed for %s: %v", doc.Label, err))
			return err
		}
		orders = append(orders, recs...)
		failures = append(failures, extFailures...)
	}
	if err := s.updateStepStatus(ctx, runID, stepExtraction, "completed"); err != nil {
		return err
	}

	// 4. First deduplication pass, on whole orders
	if err := s.updateStepStatus(ctx, runID, stepDedupeOrders, "in_progress"); err != nil {
		return err
	}
	orders = DeduplicateOrders(orders)
	if err := s.updateStepStatus(ctx, runID, stepDedupeOrders, "completed"); err != nil {
		return err
	}

	// 5. Rule-body splitting
	if err := s.updateStepStatus(ctx, runID, stepSplit, "in_progress"); err != nil {
		return err
	}
	splitter := NewSplitter(s.extractor)
	var ruleBodies []*models.RuleBodyRecord
	for _, order := range orders {
		recs, err := splitter.Split(ctx, order)
		if err != nil {
			log.Printf("Split failed for order %s: %v", order.ID, err)
			failures = append(failures, &models.PipelineFailure{
				ID:         uuid.New(),
				Stage:      models.StageSplit,
				DocumentID: &order.DocumentID,
				ChunkIndex: &order.ChunkIndex,
				Subject:    order.Title,
				Reason:     err.Error(),
			})
			continue
		}
		ruleBodies = append(ruleBodies, recs...)
	}
	if err := s.updateStepStatus(ctx, runID, stepSplit, "completed"); err != nil {
		return err
	}

	// 6. Date resolution
	if err := s.updateStepStatus(ctx, runID, stepDates, "in_progress"); err != nil {
		return err
	}
	for _, rec := range ruleBodies {
		issued, year, err := ResolveIssuedDate(rec)
		if err != nil {
			failures = append(failures, &models.PipelineFailure{
				ID:         uuid.New(),
				Stage:      models.StageDateResolution,
				DocumentID: &rec.DocumentID,
				ChunkIndex: &rec.ChunkIndex,
				Subject:    rec.Title,
				Reason:     err.Error(),
			})
			continue
		}
		rec.IssuedDate = &issued
		rec.IssuedYear = &year
	}
	if err := s.updateStepStatus(ctx, runID, stepDates, "completed"); err != nil {
		return err
	}

	// 7. Second deduplication pass, now keyed per rule body
	if err := s.updateStepStatus(ctx, runID, stepDedupeBodies, "in_progress"); err != nil {
		return err
	}
	ruleBodies = DeduplicateRuleBodies(ruleBodies)
	if err := s.updateStepStatus(ctx, runID, stepDedupeBodies, "completed"); err != nil {
		return err
	}

	// 8. Classification
	if err := s.updateStepStatus(ctx, runID, stepClassification, "in_progress"); err != nil {
		return err
	}
	classifier := NewClassifier(s.extractor)
	for _, rec := range ruleBodies {
		if err := classifier.Classify(ctx, rec); err != nil {
			log.Printf("Classification failed for rule body %s: %v", rec.ID, err)
			failures = append(failures, &models.PipelineFailure{
				ID:         uuid.New(),
				Stage:      models.StageClassification,
				DocumentID: &rec.DocumentID,
				ChunkIndex: &rec.ChunkIndex,
				Subject:    rec.BodyOfRules,
				Reason:     err.Error(),
			})
		}
	}
	if err := s.updateStepStatus(ctx, runID, stepClassification, "completed"); err != nil {
		return err
	}

	// 9. Persist everything
	if err := s.updateStepStatus(ctx, runID, stepStore, "in_progress"); err != nil {
		return err
	}
	// The stored dataset is replaced wholesale; rows from a previous run
	// would otherwise accumulate alongside the new ones.
	if err := s.ruleBodyRepo.DeleteAll(ctx); err != nil {
		s.markRunFailed(ctx, runID, "failed to clear rule bodies: "+err.Error())
		return err
	}
	if err := s.orderRepo.DeleteAll(ctx); err != nil {
		s.markRunFailed(ctx, runID, "failed to clear orders: "+err.Error())
		return err
	}
	if err := s.orderRepo.CreateBatch(ctx, orders); err != nil {
		s.markRunFailed(ctx, runID, "failed to store orders: "+err.Error())
		return err
	}
	if err := s.ruleBodyRepo.CreateBatch(ctx, ruleBodies); err != nil {
		s.markRunFailed(ctx, runID, "failed to store rule bodies: "+err.Error())
		return err
	}
	s.recordFailures(ctx, runID, failures)
	for _, doc := range docs {
		if err := s.docRepo.UpdateStatus(ctx, doc.ID, models.DocumentStatusExtracted); err != nil {
			log.Printf("Warning: failed to mark document %s extracted: %v", doc.ID, err)
		}
	}
	if err := s.updateStepStatus(ctx, runID, stepStore, "completed"); err != nil {
		return err
	}

	if err := s.runRepo.Complete(ctx, runID, len(orders), len(ruleBodies), len(failures)); err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// resolveOverlap strips the duplicated leading pages from the volume that
// restarts mid-archive. A missing boundary marker is a hard error, not a
// silent pass-through.
func (s *PipelineService) resolveOverlap(ctx context.Context) error {
	doc, err := s.docRepo.GetByLabel(ctx, s.overlapLabel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No overlapping volume loaded: nothing to resolve.
			return nil
		}
		return fmt.Errorf("failed to load overlap volume %s: %w", s.overlapLabel, err)
	}
	if doc.Status != models.DocumentStatusConverted {
		return nil
	}

	cleaned, err := StripOverlap(doc, CutoverMarker, CutoverLabel(doc), CutoverYear)
	if err != nil {
		return err
	}
	return s.docRepo.UpdateCleaned(ctx, doc.ID, cleaned.Label, cleaned.PeriodStart, cleaned.Content, cleaned.PageOffsets)
}

// updateStepStatus updates the status of a specific step in the run
func (s *PipelineService) updateStepStatus(ctx context.Context, runID uuid.UUID, stepName, status string) error {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	steps := run.Steps
	var currentStep string
	if run.CurrentStep != nil {
		currentStep = *run.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.runRepo.UpdateProgress(ctx, runID, currentStep, steps)
}

// markRunFailed marks a run as failed with an error message
func (s *PipelineService) markRunFailed(ctx context.Context, runID uuid.UUID, errorMessage string) {
	if err := s.runRepo.Fail(ctx, runID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark run %s failed: %v", runID, err)
	}
}

// ConversionFailure builds the audit-log entry for a document the
// conversion service could not process. The document is skipped; the
// failure row is what makes the skip visible downstream.
func ConversionFailure(filename string, err error) *models.PipelineFailure {
	return &models.PipelineFailure{
		ID:      uuid.New(),
		Stage:   models.StageConversion,
		Subject: filename,
		Reason:  err.Error(),
	}
}

func (s *PipelineService) recordFailures(ctx context.Context, runID uuid.UUID, failures []*models.PipelineFailure) {
	for _, f := range failures {
		f.RunID = &runID
		if err := s.failureRepo.Create(ctx, f); err != nil {
			log.Printf("Warning: failed to record pipeline failure: %v", err)
		}
	}
}
