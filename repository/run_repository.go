package repository

import (
	"context"
	"time"

	"blackbook-pipeline/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository handles database operations for pipeline runs
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Create creates a new pipeline run
func (r *RunRepository) Create(ctx context.Context, run *models.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (
			id, status, current_step, steps, error_message
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		run.ID,
		run.Status,
		run.CurrentStep,
		run.Steps,
		run.ErrorMessage,
	).Scan(&run.CreatedAt, &run.UpdatedAt)

	return err
}

// GetByID retrieves a pipeline run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	run := &models.PipelineRun{}
	query := `
		SELECT id, status, current_step, steps, error_message,
			orders_extracted, rule_bodies_produced, failure_count,
			created_at, updated_at, completed_at
		FROM pipeline_runs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Status,
		&run.CurrentStep,
		&run.Steps,
		&run.ErrorMessage,
		&run.OrdersExtracted,
		&run.RuleBodiesProduced,
		&run.FailureCount,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if run.Steps == nil {
		run.Steps = make(models.PipelineSteps, 0)
	}

	return run, nil
}

// GetLatest retrieves the most recently created pipeline run
func (r *RunRepository) GetLatest(ctx context.Context) (*models.PipelineRun, error) {
	run := &models.PipelineRun{}
	query := `
		SELECT id, status, current_step, steps, error_message,
			orders_extracted, rule_bodies_produced, failure_count,
			created_at, updated_at, completed_at
		FROM pipeline_runs
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.Status,
		&run.CurrentStep,
		&run.Steps,
		&run.ErrorMessage,
		&run.OrdersExtracted,
		&run.RuleBodiesProduced,
		&run.FailureCount,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if run.Steps == nil {
		run.Steps = make(models.PipelineSteps, 0)
	}

	return run, nil
}

// UpdateStatus updates the status of a pipeline run
func (r *RunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PipelineRunStatus) error {
	query := `
		UPDATE pipeline_runs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateProgress updates the step progress of a pipeline run
func (r *RunRepository) UpdateProgress(ctx context.Context, id uuid.UUID, currentStep string, steps models.PipelineSteps) error {
	query := `
		UPDATE pipeline_runs SET
			current_step = $2,
			steps = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, currentStep, steps)
	return err
}

// Complete marks a pipeline run as completed with its result counts
func (r *RunRepository) Complete(ctx context.Context, id uuid.UUID, orders, ruleBodies, failures int) error {
	now := time.Now()
	query := `
		UPDATE pipeline_runs SET
			status = $2,
			orders_extracted = $3,
			rule_bodies_produced = $4,
			failure_count = $5,
			completed_at = $6,
			updated_at = $6
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusCompleted, orders, ruleBodies, failures, now)
	return err
}

// Fail marks a pipeline run as failed
func (r *RunRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE pipeline_runs SET
			status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.RunStatusFailed, errorMessage)
	return err
}
