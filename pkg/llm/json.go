package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> tags that may appear at the start of LLM responses.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractObject returns the first balanced {...} substring of an LLM response
// after stripping leading <think> tags. The substring must be valid JSON.
func ExtractObject(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	jsonStr, ok := extractBalancedJSON(cleaned, '{', '}')
	if !ok {
		return "", fmt.Errorf("no JSON object found in response")
	}
	if !json.Valid([]byte(jsonStr)) {
		return "", fmt.Errorf("JSON object in response is malformed")
	}
	return jsonStr, nil
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	// Find the first occurrence of the opening bracket
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}

		if c == '\\' && inString {
			escaped = true
			continue
		}

		if c == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
