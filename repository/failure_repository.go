package repository

import (
	"context"

	"blackbook-pipeline/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FailureRepository handles database operations for the pipeline failure log
type FailureRepository struct {
	db *pgxpool.Pool
}

// NewFailureRepository creates a new failure repository
func NewFailureRepository(db *pgxpool.Pool) *FailureRepository {
	return &FailureRepository{db: db}
}

// Create records one pipeline failure
func (r *FailureRepository) Create(ctx context.Context, f *models.PipelineFailure) error {
	query := `
		INSERT INTO pipeline_failures (
			id, run_id, stage, document_id, chunk_index, subject, reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		f.ID,
		f.RunID,
		f.Stage,
		f.DocumentID,
		f.ChunkIndex,
		f.Subject,
		f.Reason,
	).Scan(&f.CreatedAt)

	return err
}

// List retrieves all recorded failures, newest first
func (r *FailureRepository) List(ctx context.Context) ([]*models.PipelineFailure, error) {
	query := `
		SELECT id, run_id, stage, document_id, chunk_index, subject, reason, created_at
		FROM pipeline_failures
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*models.PipelineFailure
	for rows.Next() {
		f := &models.PipelineFailure{}
		err := rows.Scan(
			&f.ID,
			&f.RunID,
			&f.Stage,
			&f.DocumentID,
			&f.ChunkIndex,
			&f.Subject,
			&f.Reason,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// ListByRunID retrieves the failures recorded during one pipeline run
func (r *FailureRepository) ListByRunID(ctx context.Context, runID uuid.UUID) ([]*models.PipelineFailure, error) {
	query := `
		SELECT id, run_id, stage, document_id, chunk_index, subject, reason, created_at
		FROM pipeline_failures
		WHERE run_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []*models.PipelineFailure
	for rows.Next() {
		f := &models.PipelineFailure{}
		err := rows.Scan(
			&f.ID,
			&f.RunID,
			&f.Stage,
			&f.DocumentID,
			&f.ChunkIndex,
			&f.Subject,
			&f.Reason,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}
