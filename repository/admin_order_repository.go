package repository

import (
	"context"

	"blackbook-pipeline/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminOrderRepository handles database operations for scraped
// administrative orders
type AdminOrderRepository struct {
	db *pgxpool.Pool
}

// NewAdminOrderRepository creates a new admin order repository
func NewAdminOrderRepository(db *pgxpool.Pool) *AdminOrderRepository {
	return &AdminOrderRepository{db: db}
}

// CreateBatch inserts scraped orders, skipping ones already recorded
func (r *AdminOrderRepository) CreateBatch(ctx context.Context, orders []*models.AdminOrder) error {
	if len(orders) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO admin_orders (
			id, order_number, description, date_signed, pdf_link, year
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_number, year) DO NOTHING`

	for _, o := range orders {
		batch.Queue(query, o.ID, o.OrderNumber, o.Description, o.DateSigned, o.PDFLink, o.Year)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range orders {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves all scraped orders, oldest year first
func (r *AdminOrderRepository) List(ctx context.Context) ([]*models.AdminOrder, error) {
	query := `
		SELECT id, order_number, description, date_signed, pdf_link, year, created_at
		FROM admin_orders
		ORDER BY year, order_number`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.AdminOrder
	for rows.Next() {
		o := &models.AdminOrder{}
		err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.Description,
			&o.DateSigned,
			&o.PDFLink,
			&o.Year,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// ListByYear retrieves the scraped orders for one year
func (r *AdminOrderRepository) ListByYear(ctx context.Context, year int) ([]*models.AdminOrder, error) {
	query := `
		SELECT id, order_number, description, date_signed, pdf_link, year, created_at
		FROM admin_orders
		WHERE year = $1
		ORDER BY order_number`

	rows, err := r.db.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.AdminOrder
	for rows.Next() {
		o := &models.AdminOrder{}
		err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.Description,
			&o.DateSigned,
			&o.PDFLink,
			&o.Year,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}
