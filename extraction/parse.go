package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONArray recovers a JSON array from a model response that may be
// wrapped in markdown code fences or surrounded by prose.
func extractJSONArray(response string) (string, error) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		lines := strings.Split(response, "\n")
		var jsonLines []string
		inCodeBlock := false
		for _, line := range lines {
			if strings.HasPrefix(line, "```") {
				inCodeBlock = !inCodeBlock
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		response = strings.Join(jsonLines, "\n")
	}

	startIdx := strings.Index(response, "[")
	endIdx := strings.LastIndex(response, "]")
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		return "", fmt.Errorf("%w: could not find JSON array in response", ErrSchemaValidation)
	}

	return response[startIdx : endIdx+1], nil
}

// parseOrdersResponse decodes the model's JSON into OrderFields records and
// validates each against the schema. Records with no date fields are
// schema failures for the whole chunk, not silently-dropped rows.
func parseOrdersResponse(response string) ([]OrderFields, error) {
	jsonStr, err := extractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	records := make([]OrderFields, 0, len(raw))
	for _, data := range raw {
		rec := OrderFields{}
		if title, ok := data["order_title"].(string); ok {
			rec.Title = strings.TrimSpace(title)
		}
		rec.FiledDate = optionalString(data, "filed_date")
		rec.DatedDate = optionalString(data, "dated_date")
		rec.ApprovedDate = optionalString(data, "approved_date")
		rec.EffectiveDate = optionalString(data, "effective_date")

		if err := ValidateOrderFields(rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseBodiesResponse decodes a JSON array of rule-system names.
func parseBodiesResponse(response string) ([]string, error) {
	jsonStr, err := extractJSONArray(response)
	if err != nil {
		return nil, err
	}

	var bodies []string
	if err := json.Unmarshal([]byte(jsonStr), &bodies); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	cleaned := make([]string, 0, len(bodies))
	for _, b := range bodies {
		b = strings.TrimSpace(b)
		if b != "" {
			cleaned = append(cleaned, b)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: empty rule-body list", ErrSchemaValidation)
	}

	return cleaned, nil
}

func optionalString(data map[string]interface{}, key string) *string {
	if v, ok := data[key].(string); ok {
		v = strings.TrimSpace(v)
		if v != "" {
			return &v
		}
	}
	return nil
}
