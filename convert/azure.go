// Package convert turns scanned archive PDFs into markdown text via the
// Azure Document Intelligence layout model.
package convert

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	analyzePath     = "/documentintelligence/documentModels/prebuilt-layout:analyze"
	analyzeVersion  = "2024-11-30"
	defaultPollWait = 3 * time.Second
	maxPollAttempts = 100
)

var (
	ErrMissingCredentials = errors.New("AZURE_KEY or AZURE_ENDPOINT not set")
	ErrAnalysisFailed     = errors.New("document analysis failed")
	ErrAnalysisTimeout    = errors.New("document analysis did not finish in time")
)

// HTTPClient is the subset of http.Client the converter uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Azure Document Intelligence REST API.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient HTTPClient
	pollWait   time.Duration
}

// ClientOption is a functional option for Client
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests
func WithHTTPClient(c HTTPClient) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithPollInterval overrides the wait between result polls
func WithPollInterval(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.pollWait = d
		}
	}
}

// NewClient creates a converter client for the given endpoint and key.
func NewClient(endpoint, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		pollWait:   defaultPollWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client from AZURE_ENDPOINT and AZURE_KEY.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	endpoint := os.Getenv("AZURE_ENDPOINT")
	apiKey := os.Getenv("AZURE_KEY")
	if endpoint == "" || apiKey == "" {
		return nil, ErrMissingCredentials
	}
	return NewClient(endpoint, apiKey, opts...), nil
}

// Result holds the converted text of one document. Content is markdown
// with pages joined by a horizontal-rule separator; PageOffsets holds the
// byte offset of each page's start within Content.
type Result struct {
	Content     string
	PageOffsets []int32
	PageCount   int
}

// PageSeparator joins consecutive pages in Result.Content.
const PageSeparator = "\n\n---\n\n"

type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

type span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type analyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Content string `json:"content"`
		Pages   []struct {
			PageNumber int    `json:"pageNumber"`
			Spans      []span `json:"spans"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ConvertPDF analyzes one PDF and returns its markdown content with page
// offsets. The analysis is asynchronous on the Azure side: submit, then
// poll the operation location until it settles.
func (c *Client) ConvertPDF(ctx context.Context, pdf []byte) (*Result, error) {
	opLocation, err := c.submit(ctx, pdf)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, opLocation)
}

func (c *Client) submit(ctx context.Context, pdf []byte) (string, error) {
	body, err := json.Marshal(analyzeRequest{
		Base64Source: base64.StdEncoding.EncodeToString(pdf),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s%s?api-version=%s&outputContentFormat=markdown",
		c.endpoint, analyzePath, analyzeVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("analyze request rejected: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	opLocation := resp.Header.Get("Operation-Location")
	if opLocation == "" {
		return "", errors.New("analyze response missing Operation-Location header")
	}
	return opLocation, nil
}

func (c *Client) poll(ctx context.Context, opLocation string) (*Result, error) {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollWait):
		}

		req, err := http.NewRequestWithContext(ctx, "GET", opLocation, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create poll request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("Warning: poll attempt %d failed: %v", attempt, err)
			continue
		}

		var result analyzeResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode poll response: %w", err)
		}

		switch result.Status {
		case "succeeded":
			return assembleResult(&result), nil
		case "failed":
			return nil, fmt.Errorf("%w: %s (%s)", ErrAnalysisFailed, result.Error.Message, result.Error.Code)
		}
		// running or notStarted: keep polling
	}
	return nil, ErrAnalysisTimeout
}

// assembleResult rebuilds per-page text from the analysis spans and joins
// pages with the separator, recording where each page starts.
func assembleResult(result *analyzeResult) *Result {
	content := result.AnalyzeResult.Content
	pages := result.AnalyzeResult.Pages
	if len(pages) == 0 {
		return &Result{Content: content, PageOffsets: []int32{0}, PageCount: 1}
	}

	var builder strings.Builder
	offsets := make([]int32, 0, len(pages))
	for i, page := range pages {
		if i > 0 {
			builder.WriteString(PageSeparator)
		}
		offsets = append(offsets, int32(builder.Len()))
		for _, sp := range page.Spans {
			end := sp.Offset + sp.Length
			if sp.Offset < 0 || end > len(content) {
				continue
			}
			builder.WriteString(content[sp.Offset:end])
		}
	}
	return &Result{
		Content:     builder.String(),
		PageOffsets: offsets,
		PageCount:   len(pages),
	}
}
