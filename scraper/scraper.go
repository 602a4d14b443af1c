// Package scraper collects administrative-order metadata from the Arizona
// Judicial Branch yearly index pages.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"blackbook-pipeline/models"
)

const (
	baseURL   = "https://www.azcourts.gov"
	ordersURL = baseURL + "/orders"
	FirstYear = 1956
	LastYear  = 2024

	// The site restructured its index URLs for 2016 onward. Both forms
	// live under the /orders section.
	urlFormatLegacy = ordersURL + "/AdministrativeOrdersIndex/%dAdministrativeOrders.aspx"
	urlFormatModern = ordersURL + "/Administrative-Orders-Index/%d-Administrative-Orders"

	maxOrderNumberLen = 50
	minDescriptionLen = 5

	defaultDelay = time.Second
)

var (
	tableRowRe  = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	tableCellRe = regexp.MustCompile(`(?is)<td[^>]*>(.*?)</td>`)
	linkRe      = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	dateCellRe  = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)
)

// HTTPClient is the subset of http.Client the scraper uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scraper fetches and parses yearly administrative-order index pages.
type Scraper struct {
	httpClient HTTPClient
	delay      time.Duration
}

// Option is a functional option for Scraper
type Option func(*Scraper)

// WithHTTPClient overrides the HTTP client, mainly for tests
func WithHTTPClient(c HTTPClient) Option {
	return func(s *Scraper) {
		s.httpClient = c
	}
}

// WithDelay overrides the politeness delay between year fetches
func WithDelay(d time.Duration) Option {
	return func(s *Scraper) {
		s.delay = d
	}
}

// New creates a scraper with a one second delay between page fetches.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      defaultDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// YearURL returns the index page URL for a year.
func YearURL(year int) string {
	if year >= 2016 {
		return fmt.Sprintf(urlFormatModern, year)
	}
	return fmt.Sprintf(urlFormatLegacy, year)
}

// ScrapeYear fetches and parses one year's index page.
func (s *Scraper) ScrapeYear(ctx context.Context, year int) ([]*models.AdminOrder, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", YearURL(year), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "blackbook-pipeline/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %d index: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index page for %d returned %d", year, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d index: %w", year, err)
	}

	return ParseIndexPage(string(body), year), nil
}

// ScrapeRange fetches every year in [from, to], skipping years whose pages
// fail rather than aborting the whole crawl.
func (s *Scraper) ScrapeRange(ctx context.Context, from, to int) ([]*models.AdminOrder, error) {
	var all []*models.AdminOrder
	for year := from; year <= to; year++ {
		if year > from {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		orders, err := s.ScrapeYear(ctx, year)
		if err != nil {
			log.Printf("Warning: skipping year %d: %v", year, err)
			continue
		}
		log.Printf("Scraped %d orders for %d", len(orders), year)
		all = append(all, orders...)
	}
	return all, nil
}

// ParseIndexPage extracts administrative orders from a year index page.
// Rows that fail validation are dropped; header rows and navigation tables
// never pass it.
func ParseIndexPage(html string, year int) []*models.AdminOrder {
	var orders []*models.AdminOrder
	for _, rowMatch := range tableRowRe.FindAllStringSubmatch(html, -1) {
		order := parseRow(rowMatch[1], year)
		if order != nil {
			orders = append(orders, order)
		}
	}
	return orders
}

func parseRow(row string, year int) *models.AdminOrder {
	cells := tableCellRe.FindAllStringSubmatch(row, -1)
	if len(cells) < 3 {
		return nil
	}

	orderNumber := cleanCell(cells[0][1])
	description := cleanCell(cells[1][1])
	dateSigned := findDateCell(cells)

	if orderNumber == "" || len(orderNumber) > maxOrderNumberLen {
		return nil
	}
	if len(description) < minDescriptionLen {
		return nil
	}

	// The PDF link lives in whichever cell carries an anchor, usually the
	// order number cell.
	var pdfLink string
	if m := linkRe.FindStringSubmatch(row); m != nil {
		pdfLink = resolveLink(m[1])
	}

	return &models.AdminOrder{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		Description: description,
		DateSigned:  dateSigned,
		PDFLink:     pdfLink,
		Year:        year,
	}
}

// findDateCell returns the first cell beyond the description that looks
// like a date. Column layout drifts across years, so the position is not
// fixed; when nothing matches, the last cell is taken as-is.
func findDateCell(cells [][]string) string {
	for _, cell := range cells[2:] {
		text := cleanCell(cell[1])
		if dateCellRe.MatchString(text) {
			return text
		}
	}
	return cleanCell(cells[len(cells)-1][1])
}

func cleanCell(cell string) string {
	text := tagRe.ReplaceAllString(cell, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	return strings.Join(strings.Fields(text), " ")
}

func resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return baseURL + href
	}
	return baseURL + "/" + href
}
