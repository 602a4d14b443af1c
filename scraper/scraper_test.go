package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexFixture = `
<html><body>
<table>
<tr><th>Order Number</th><th>Description</th><th>Date Signed</th></tr>
<tr>
  <td><a href="/docs/ao/1975-01.pdf">75-1</a></td>
  <td>Adopting uniform recordkeeping standards for the superior courts</td>
  <td>January 15, 1975</td>
</tr>
<tr>
  <td>75-2</td>
  <td>None</td>
  <td>February 1, 1975</td>
</tr>
<tr>
  <td>this order number is way too long to be a real administrative order number</td>
  <td>Amending the personnel rules of the judicial branch</td>
  <td>March 1, 1975</td>
</tr>
<tr>
  <td>75-3&nbsp;</td>
  <td>Establishing the <b>commission</b> on courts &amp; records</td>
  <td>April 10, 1975</td>
</tr>
</table>
</body></html>`

func TestParseIndexPage(t *testing.T) {
	orders := ParseIndexPage(indexFixture, 1975)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "75-1", first.OrderNumber)
	assert.Equal(t, "Adopting uniform recordkeeping standards for the superior courts", first.Description)
	assert.Equal(t, "January 15, 1975", first.DateSigned)
	assert.Equal(t, "https://www.azcourts.gov/docs/ao/1975-01.pdf", first.PDFLink)
	assert.Equal(t, 1975, first.Year)

	second := orders[1]
	assert.Equal(t, "75-3", second.OrderNumber)
	assert.Equal(t, "Establishing the commission on courts & records", second.Description)
	assert.Empty(t, second.PDFLink)
}

func TestParseIndexPageDateInLaterColumn(t *testing.T) {
	// Some years insert extra columns between the description and the
	// signing date; the date is found by shape, not position.
	html := `<table>
<tr>
  <td>2003-41</td>
  <td>Adopting the code of conduct for judicial employees</td>
  <td>Administrative Office of the Courts</td>
  <td>5/12/2003</td>
  <td>Active</td>
</tr>
<tr>
  <td>2003-42</td>
  <td>Establishing the committee on court interpreters</td>
  <td>Superseded</td>
  <td>June 3, 2003</td>
</tr>
</table>`

	orders := ParseIndexPage(html, 2003)
	require.Len(t, orders, 2)

	assert.Equal(t, "5/12/2003", orders[0].DateSigned)
	// No cell matches the numeric date shape; the last cell is used.
	assert.Equal(t, "June 3, 2003", orders[1].DateSigned)
}

func TestYearURLFormatPivot(t *testing.T) {
	assert.Equal(t,
		"https://www.azcourts.gov/orders/AdministrativeOrdersIndex/2015AdministrativeOrders.aspx",
		YearURL(2015))
	assert.Equal(t,
		"https://www.azcourts.gov/orders/Administrative-Orders-Index/2016-Administrative-Orders",
		YearURL(2016))
	assert.Equal(t,
		"https://www.azcourts.gov/orders/AdministrativeOrdersIndex/1956AdministrativeOrders.aspx",
		YearURL(FirstYear))
}

type stubHTTPClient struct {
	requests []*http.Request
	respond  func(req *http.Request) (*http.Response, error)
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	return c.respond(req)
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestScrapeYear(t *testing.T) {
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			return htmlResponse(http.StatusOK, indexFixture), nil
		},
	}
	s := New(WithHTTPClient(client))

	orders, err := s.ScrapeYear(context.Background(), 1975)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	require.Len(t, client.requests, 1)
	assert.Equal(t, YearURL(1975), client.requests[0].URL.String())
	assert.Equal(t, "blackbook-pipeline/1.0", client.requests[0].Header.Get("User-Agent"))
}

func TestScrapeYearNonOKStatus(t *testing.T) {
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			return htmlResponse(http.StatusNotFound, ""), nil
		},
	}
	s := New(WithHTTPClient(client))

	_, err := s.ScrapeYear(context.Background(), 1960)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestScrapeRangeSkipsFailedYears(t *testing.T) {
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			if strings.Contains(req.URL.Path, "1976") {
				return htmlResponse(http.StatusInternalServerError, ""), nil
			}
			return htmlResponse(http.StatusOK, indexFixture), nil
		},
	}
	s := New(WithHTTPClient(client), WithDelay(0))

	orders, err := s.ScrapeRange(context.Background(), 1975, 1977)
	require.NoError(t, err)
	// 1976 is skipped, 1975 and 1977 each contribute two orders.
	assert.Len(t, orders, 4)
	assert.Len(t, client.requests, 3)
}

func TestResolveLink(t *testing.T) {
	assert.Equal(t, "https://example.org/a.pdf", resolveLink("https://example.org/a.pdf"))
	assert.Equal(t, "https://www.azcourts.gov/docs/a.pdf", resolveLink("/docs/a.pdf"))
	assert.Equal(t, "https://www.azcourts.gov/docs/a.pdf", resolveLink("docs/a.pdf"))
}
