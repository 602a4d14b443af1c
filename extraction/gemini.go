package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const (
	generationAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"
	maxRetries     = 3
	initialBackoff = time.Second
)

// GeminiService implements Service against the Gemini generation API.
type GeminiService struct {
	client *genai.Client
}

// NewGeminiService creates a new Gemini-backed extraction service.
func NewGeminiService(client *genai.Client) *GeminiService {
	return &GeminiService{client: client}
}

// ExtractOrders pulls order records from one chunk of Blackbook text.
func (s *GeminiService) ExtractOrders(ctx context.Context, text string) ([]OrderFields, error) {
	if s.client == nil {
		return nil, errors.New("gemini client not set")
	}

	prompt := createOrderExtractionPrompt(text)
	response, err := s.callWithRetry(ctx, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	// Schema failures are permanent for the chunk: one attempt, no retry.
	return parseOrdersResponse(response)
}

// SplitRuleBodies asks the model for the rule-system names in a title whose
// deterministic parse was ambiguous.
func (s *GeminiService) SplitRuleBodies(ctx context.Context, title string) ([]string, error) {
	if s.client == nil {
		return nil, errors.New("gemini client not set")
	}

	prompt := createSplitPrompt(title)
	response, err := s.callWithRetry(ctx, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	return parseBodiesResponse(response)
}

// ClassifyLocal classifies one record's text as local or statewide.
// The literal word "local" anywhere in the text force-classifies the record
// Local regardless of model output.
func (s *GeminiService) ClassifyLocal(ctx context.Context, text string) (bool, error) {
	if s.client == nil {
		return false, errors.New("gemini client not set")
	}

	// Deterministic safety net over the non-deterministic classifier.
	if strings.Contains(strings.ToLower(text), "local") {
		return true, nil
	}

	prompt := createClassificationPrompt(text)
	response, err := s.callWithRetry(ctx, prompt, 0.0)
	if err != nil {
		return false, err
	}

	answer := strings.ToUpper(strings.TrimSpace(response))
	switch {
	case strings.HasPrefix(answer, "LOCAL"):
		return true, nil
	case strings.HasPrefix(answer, "STATEWIDE"):
		return false, nil
	default:
		return false, fmt.Errorf("%w: unexpected label %q", ErrSchemaValidation, answer)
	}
}

func createOrderExtractionPrompt(text string) string {
	return fmt.Sprintf(`You are a legal document processor working on Arizona Supreme Court Blackbook compilations.

TASK: Extract every rulemaking order from the text below. An order has a title line (usually uppercase, naming the body of rules amended) followed by one or more date lines.

For each order, extract:
1. order_title: The complete title text, including any bracket citation codes
2. filed_date: Text after "Filed" if present, else null
3. dated_date: Text after "Dated" if present, else null
4. approved_date: Text after "Approved" if present, else null
5. effective_date: Text after "Effective" if present, else null

Keep date values exactly as written in the document. Do not normalize or reformat them. Every order must have at least one date field; skip fragments with none.

OUTPUT JSON SCHEMA:
[
  {
    "order_title": "RULES OF CIVIL PROCEDURE: \"Amending Rule 5(b)\" [R-76-11]",
    "filed_date": null,
    "dated_date": "June 27, 1975",
    "approved_date": null,
    "effective_date": "July 1, 1975"
  }
]

DOCUMENT TEXT:
%s

Return ONLY valid JSON, no markdown, no explanations.`, text)
}

func createSplitPrompt(title string) string {
	return fmt.Sprintf(`You are a legal document processor working on Arizona Supreme Court rulemaking orders.

TASK: The order title below amends one or more bodies of rules. List the full name of each distinct body of rules it amends, in the order they appear.

Examples of bodies of rules: "Rules of Civil Procedure", "Rules of Criminal Procedure", "Rules of the Supreme Court", "Local Rules of the Superior Court".

ORDER TITLE:
%s

Return ONLY a JSON array of strings, one per body of rules, no markdown, no explanations.`, title)
}

func createClassificationPrompt(text string) string {
	return fmt.Sprintf(`You are a legal document classifier working on Arizona court rulemaking orders.

TASK: Classify the order below as LOCAL or STATEWIDE.
- LOCAL: the rule applies only to a specific county or a specific court (e.g. a county superior court's local rules).
- STATEWIDE: the rule applies to all courts of a kind across Arizona.

ORDER TEXT:
%s

Answer with exactly one word: LOCAL or STATEWIDE.`, text)
}

// callWithRetry calls the Gemini generation API directly via HTTP with
// bounded retry and exponential backoff on transient errors.
func (s *GeminiService) callWithRetry(ctx context.Context, prompt string, temperature float64) (string, error) {
	var response string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		response, err = s.callGenerationAPI(ctx, prompt, temperature)
		if err == nil && response != "" {
			return response, nil
		}

		// Don't retry permanent failures.
		var permErr *permanentAPIError
		if errors.As(err, &permErr) {
			return "", err
		}
	}

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return "", ErrServiceUnavailable
}

// permanentAPIError marks a status code that retrying cannot fix.
type permanentAPIError struct {
	statusCode int
	body       string
}

func (e *permanentAPIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.statusCode, e.body)
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (s *GeminiService) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return "", &permanentAPIError{statusCode: resp.StatusCode, body: string(bodyBytes)}
		}
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		log.Printf("Failed to decode response. Body: %s", string(bodyBytes))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.PromptFeedback.BlockReason != "" {
		return "", &permanentAPIError{statusCode: resp.StatusCode, body: "prompt blocked: " + apiResp.PromptFeedback.BlockReason}
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	return result, nil
}
