package repository

import (
	"context"

	"blackbook-pipeline/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRecordRepository handles database operations for extracted orders
type OrderRecordRepository struct {
	db *pgxpool.Pool
}

// NewOrderRecordRepository creates a new order record repository
func NewOrderRecordRepository(db *pgxpool.Pool) *OrderRecordRepository {
	return &OrderRecordRepository{db: db}
}

// Create creates a single order record
func (r *OrderRecordRepository) Create(ctx context.Context, rec *models.OrderRecord) error {
	query := `
		INSERT INTO order_records (
			id, document_id, chunk_index, order_title,
			filed_date, dated_date, approved_date, effective_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		rec.ID,
		rec.DocumentID,
		rec.ChunkIndex,
		rec.Title,
		rec.FiledDate,
		rec.DatedDate,
		rec.ApprovedDate,
		rec.EffectiveDate,
	).Scan(&rec.CreatedAt)

	return err
}

// CreateBatch inserts many order records in one round trip
func (r *OrderRecordRepository) CreateBatch(ctx context.Context, recs []*models.OrderRecord) error {
	if len(recs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO order_records (
			id, document_id, chunk_index, order_title,
			filed_date, dated_date, approved_date, effective_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, rec := range recs {
		batch.Queue(query,
			rec.ID,
			rec.DocumentID,
			rec.ChunkIndex,
			rec.Title,
			rec.FiledDate,
			rec.DatedDate,
			rec.ApprovedDate,
			rec.EffectiveDate,
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

// List retrieves all order records in document and chunk order
func (r *OrderRecordRepository) List(ctx context.Context) ([]*models.OrderRecord, error) {
	query := `
		SELECT id, document_id, chunk_index, order_title,
			filed_date, dated_date, approved_date, effective_date, created_at
		FROM order_records
		ORDER BY document_id, chunk_index, created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.OrderRecord
	for rows.Next() {
		rec := &models.OrderRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.DocumentID,
			&rec.ChunkIndex,
			&rec.Title,
			&rec.FiledDate,
			&rec.DatedDate,
			&rec.ApprovedDate,
			&rec.EffectiveDate,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// ListByDocumentID retrieves all order records for one source document
func (r *OrderRecordRepository) ListByDocumentID(ctx context.Context, documentID uuid.UUID) ([]*models.OrderRecord, error) {
	query := `
		SELECT id, document_id, chunk_index, order_title,
			filed_date, dated_date, approved_date, effective_date, created_at
		FROM order_records
		WHERE document_id = $1
		ORDER BY chunk_index, created_at`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.OrderRecord
	for rows.Next() {
		rec := &models.OrderRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.DocumentID,
			&rec.ChunkIndex,
			&rec.Title,
			&rec.FiledDate,
			&rec.DatedDate,
			&rec.ApprovedDate,
			&rec.EffectiveDate,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

// DeleteAll clears the order records table before a fresh run
func (r *OrderRecordRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM order_records`)
	return err
}
