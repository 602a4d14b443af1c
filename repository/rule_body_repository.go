package repository

import (
	"context"

	"blackbook-pipeline/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleBodyRepository handles database operations for rule body records
type RuleBodyRepository struct {
	db *pgxpool.Pool
}

// NewRuleBodyRepository creates a new rule body repository
func NewRuleBodyRepository(db *pgxpool.Pool) *RuleBodyRepository {
	return &RuleBodyRepository{db: db}
}

const ruleBodyColumns = `
	id, order_id, document_id, chunk_index, order_title, body_of_rules,
	order_number, bracket_codes,
	filed_date, dated_date, approved_date, effective_date,
	issued_date, issued_year,
	local_strict, local_expanded, local_llm, statewide_trial_court_rule,
	created_at`

// CreateBatch inserts many rule body records in one round trip
func (r *RuleBodyRepository) CreateBatch(ctx context.Context, recs []*models.RuleBodyRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO rule_body_records (
			id, order_id, document_id, chunk_index, order_title, body_of_rules,
			order_number, bracket_codes,
			filed_date, dated_date, approved_date, effective_date,
			issued_date, issued_year,
			local_strict, local_expanded, local_llm, statewide_trial_court_rule
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	for _, rec := range recs {
		batch.Queue(query,
			rec.ID,
			rec.OrderID,
			rec.DocumentID,
			rec.ChunkIndex,
			rec.Title,
			rec.BodyOfRules,
			rec.OrderNumber,
			rec.BracketCodes,
			rec.FiledDate,
			rec.DatedDate,
			rec.ApprovedDate,
			rec.EffectiveDate,
			rec.IssuedDate,
			rec.IssuedYear,
			rec.LocalStrict,
			rec.LocalExpanded,
			rec.LocalLLM,
			rec.StatewideTrialCourtRule,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range recs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves all rule body records, oldest issued first
func (r *RuleBodyRepository) List(ctx context.Context) ([]*models.RuleBodyRecord, error) {
	query := `
		SELECT ` + ruleBodyColumns + `
		FROM rule_body_records
		ORDER BY issued_date NULLS LAST, created_at`

	return r.queryRecords(ctx, query)
}

// ListDisagreements retrieves records whose three local labels differ
func (r *RuleBodyRepository) ListDisagreements(ctx context.Context) ([]*models.RuleBodyRecord, error) {
	query := `
		SELECT ` + ruleBodyColumns + `
		FROM rule_body_records
		WHERE NOT (local_strict = local_expanded AND local_expanded = local_llm)
		ORDER BY issued_date NULLS LAST, created_at`

	return r.queryRecords(ctx, query)
}

// ListByYear retrieves records issued in one year
func (r *RuleBodyRepository) ListByYear(ctx context.Context, year int) ([]*models.RuleBodyRecord, error) {
	query := `
		SELECT ` + ruleBodyColumns + `
		FROM rule_body_records
		WHERE issued_year = $1
		ORDER BY issued_date NULLS LAST, created_at`

	return r.queryRecords(ctx, query, year)
}

// DeleteAll clears the rule body records table before a fresh run
func (r *RuleBodyRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rule_body_records`)
	return err
}

func (r *RuleBodyRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*models.RuleBodyRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.RuleBodyRecord
	for rows.Next() {
		rec := &models.RuleBodyRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.OrderID,
			&rec.DocumentID,
			&rec.ChunkIndex,
			&rec.Title,
			&rec.BodyOfRules,
			&rec.OrderNumber,
			&rec.BracketCodes,
			&rec.FiledDate,
			&rec.DatedDate,
			&rec.ApprovedDate,
			&rec.EffectiveDate,
			&rec.IssuedDate,
			&rec.IssuedYear,
			&rec.LocalStrict,
			&rec.LocalExpanded,
			&rec.LocalLLM,
			&rec.StatewideTrialCourtRule,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
