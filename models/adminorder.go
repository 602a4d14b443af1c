package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminOrder represents one administrative order scraped from the court
// website index pages. The date is kept as the raw cell text; the scraper
// does not interpret it.
type AdminOrder struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	Description string    `json:"description"`
	DateSigned  string    `json:"date_signed"`
	PDFLink     string    `json:"pdf_link"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `json:"created_at"`
}
