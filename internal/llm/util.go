package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a potential language identifier on the first line.
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ParseStringArray decodes an LLM response that is expected to be a JSON
// array of strings. It tolerates two common deviations: code-fence wrapping
// and arrays of objects carrying a "skill" field (the models sometimes return
// frequency-annotated objects instead of bare strings).
func ParseStringArray(response string) ([]string, error) {
	cleaned := CleanJSONBlock(response)

	var plain []string
	if err := json.Unmarshal([]byte(cleaned), &plain); err == nil {
		return plain, nil
	}

	var annotated []struct {
		Skill string `json:"skill"`
	}
	if err := json.Unmarshal([]byte(cleaned), &annotated); err == nil {
		values := make([]string, 0, len(annotated))
		for _, item := range annotated {
			if item.Skill != "" {
				values = append(values, item.Skill)
			}
		}
		if len(values) > 0 {
			return values, nil
		}
	}

	return nil, fmt.Errorf("response is not a JSON string array: %.80s", cleaned)
}
