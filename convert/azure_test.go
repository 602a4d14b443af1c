package convert

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHTTPClient struct {
	requests []*http.Request
	respond  func(req *http.Request) (*http.Response, error)
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.requests = append(c.requests, req)
	return c.respond(req)
}

func jsonResponse(status int, body string, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func succeededBody(t *testing.T, content string, pages []map[string]interface{}) string {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"status": "succeeded",
		"analyzeResult": map[string]interface{}{
			"content": content,
			"pages":   pages,
		},
	})
	require.NoError(t, err)
	return string(body)
}

func TestConvertPDF(t *testing.T) {
	content := "page one textpage two text"
	pages := []map[string]interface{}{
		{"pageNumber": 1, "spans": []map[string]int{{"offset": 0, "length": 13}}},
		{"pageNumber": 2, "spans": []map[string]int{{"offset": 13, "length": 13}}},
	}

	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			if req.Method == "POST" {
				return jsonResponse(http.StatusAccepted, "", map[string]string{
					"Operation-Location": "https://example.cognitiveservices.azure.com/op/123",
				}), nil
			}
			return jsonResponse(http.StatusOK, succeededBody(t, content, pages), nil), nil
		},
	}

	c := NewClient("https://example.cognitiveservices.azure.com/", "key",
		WithHTTPClient(client), WithPollInterval(time.Millisecond))

	pdf := []byte("%PDF-1.4 fake")
	result, err := c.ConvertPDF(context.Background(), pdf)
	require.NoError(t, err)

	assert.Equal(t, "page one text"+PageSeparator+"page two text", result.Content)
	assert.Equal(t, []int32{0, int32(len("page one text" + PageSeparator))}, result.PageOffsets)
	assert.Equal(t, 2, result.PageCount)

	require.Len(t, client.requests, 2)
	submit := client.requests[0]
	assert.Contains(t, submit.URL.String(), "prebuilt-layout:analyze")
	assert.Contains(t, submit.URL.RawQuery, "api-version=2024-11-30")
	assert.Contains(t, submit.URL.RawQuery, "outputContentFormat=markdown")
	assert.Equal(t, "key", submit.Header.Get("Ocp-Apim-Subscription-Key"))

	var payload analyzeRequest
	bodyBytes, err := io.ReadAll(client.requests[0].Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bodyBytes, &payload))
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), payload.Base64Source)

	poll := client.requests[1]
	assert.Equal(t, "https://example.cognitiveservices.azure.com/op/123", poll.URL.String())
}

func TestConvertPDFPollsUntilSettled(t *testing.T) {
	polls := 0
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			if req.Method == "POST" {
				return jsonResponse(http.StatusAccepted, "", map[string]string{
					"Operation-Location": "https://example.com/op/1",
				}), nil
			}
			polls++
			if polls < 3 {
				return jsonResponse(http.StatusOK, `{"status": "running"}`, nil), nil
			}
			return jsonResponse(http.StatusOK, succeededBody(t, "text", nil), nil), nil
		},
	}

	c := NewClient("https://example.com", "key",
		WithHTTPClient(client), WithPollInterval(time.Millisecond))

	result, err := c.ConvertPDF(context.Background(), []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
	assert.Equal(t, "text", result.Content)
	assert.Equal(t, []int32{0}, result.PageOffsets)
}

func TestConvertPDFAnalysisFailed(t *testing.T) {
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			if req.Method == "POST" {
				return jsonResponse(http.StatusAccepted, "", map[string]string{
					"Operation-Location": "https://example.com/op/1",
				}), nil
			}
			return jsonResponse(http.StatusOK,
				`{"status": "failed", "error": {"code": "InvalidContent", "message": "corrupt PDF"}}`, nil), nil
		},
	}

	c := NewClient("https://example.com", "key",
		WithHTTPClient(client), WithPollInterval(time.Millisecond))

	_, err := c.ConvertPDF(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "corrupt PDF")
}

func TestConvertPDFSubmitRejected(t *testing.T) {
	client := &stubHTTPClient{
		respond: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadRequest, `{"error": {"code": "InvalidRequest"}}`, nil), nil
		},
	}

	c := NewClient("https://example.com", "key", WithHTTPClient(client))

	_, err := c.ConvertPDF(context.Background(), []byte("pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewClientFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("AZURE_ENDPOINT", "")
	t.Setenv("AZURE_KEY", "")

	_, err := NewClientFromEnv()
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAssembleResultSkipsOutOfRangeSpans(t *testing.T) {
	var result analyzeResult
	result.Status = "succeeded"
	result.AnalyzeResult.Content = "short"
	result.AnalyzeResult.Pages = []struct {
		PageNumber int    `json:"pageNumber"`
		Spans      []span `json:"spans"`
	}{
		{PageNumber: 1, Spans: []span{{Offset: 0, Length: 5}, {Offset: 3, Length: 100}}},
	}

	out := assembleResult(&result)
	assert.Equal(t, "short", out.Content)
	assert.Equal(t, []int32{0}, out.PageOffsets)
	assert.Equal(t, 1, out.PageCount)
}
