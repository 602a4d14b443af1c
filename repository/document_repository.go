package repository

import (
	"context"

	"blackbook-pipeline/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for source documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new source document record
func (r *DocumentRepository) Create(ctx context.Context, doc *models.SourceDocument) error {
	query := `
		INSERT INTO source_documents (
			id, label, filename, period_start, period_end, content,
			page_offsets, storage_path, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.ID,
		doc.Label,
		doc.Filename,
		doc.PeriodStart,
		doc.PeriodEnd,
		doc.Content,
		doc.PageOffsets,
		doc.StoragePath,
		doc.Status,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	return err
}

// GetByID retrieves a source document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SourceDocument, error) {
	doc := &models.SourceDocument{}
	query := `
		SELECT id, label, filename, period_start, period_end, content,
			page_offsets, storage_path, status, created_at, updated_at
		FROM source_documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Label,
		&doc.Filename,
		&doc.PeriodStart,
		&doc.PeriodEnd,
		&doc.Content,
		&doc.PageOffsets,
		&doc.StoragePath,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetByLabel retrieves a source document by its archive label
func (r *DocumentRepository) GetByLabel(ctx context.Context, label string) (*models.SourceDocument, error) {
	doc := &models.SourceDocument{}
	query := `
		SELECT id, label, filename, period_start, period_end, content,
			page_offsets, storage_path, status, created_at, updated_at
		FROM source_documents
		WHERE label = $1`

	err := r.db.QueryRow(ctx, query, label).Scan(
		&doc.ID,
		&doc.Label,
		&doc.Filename,
		&doc.PeriodStart,
		&doc.PeriodEnd,
		&doc.Content,
		&doc.PageOffsets,
		&doc.StoragePath,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// List retrieves all source documents, oldest volume first
func (r *DocumentRepository) List(ctx context.Context) ([]*models.SourceDocument, error) {
	query := `
		SELECT id, label, filename, period_start, period_end, content,
			page_offsets, storage_path, status, created_at, updated_at
		FROM source_documents
		ORDER BY period_start`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.SourceDocument
	for rows.Next() {
		doc := &models.SourceDocument{}
		err := rows.Scan(
			&doc.ID,
			&doc.Label,
			&doc.Filename,
			&doc.PeriodStart,
			&doc.PeriodEnd,
			&doc.Content,
			&doc.PageOffsets,
			&doc.StoragePath,
			&doc.Status,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// ListProcessable retrieves documents whose text is ready for the pipeline
func (r *DocumentRepository) ListProcessable(ctx context.Context) ([]*models.SourceDocument, error) {
	query := `
		SELECT id, label, filename, period_start, period_end, content,
			page_offsets, storage_path, status, created_at, updated_at
		FROM source_documents
		WHERE status IN ($1, $2)
		ORDER BY period_start`

	rows, err := r.db.Query(ctx, query, models.DocumentStatusConverted, models.DocumentStatusCleaned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.SourceDocument
	for rows.Next() {
		doc := &models.SourceDocument{}
		err := rows.Scan(
			&doc.ID,
			&doc.Label,
			&doc.Filename,
			&doc.PeriodStart,
			&doc.PeriodEnd,
			&doc.Content,
			&doc.PageOffsets,
			&doc.StoragePath,
			&doc.Status,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// UpdateCleaned stores overlap-resolved content for a document along with
// its corrected coverage label and period start.
func (r *DocumentRepository) UpdateCleaned(ctx context.Context, id uuid.UUID, label string, periodStart int, content string, pageOffsets []int32) error {
	query := `
		UPDATE source_documents SET
			label = $2,
			period_start = $3,
			content = $4,
			page_offsets = $5,
			status = $6,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, label, periodStart, content, pageOffsets, models.DocumentStatusCleaned)
	return err
}

// UpdateStatus updates a document's processing status
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DocumentStatus) error {
	query := `
		UPDATE source_documents SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}
