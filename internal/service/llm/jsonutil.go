package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidJSON reports a completion that holds no decodable JSON value
var ErrInvalidJSON = errors.New("completion is not valid JSON")

// score is a 0-100 rating as models write it: an integer, a fraction or a
// quoted number. null and "" decode to 0.
type score float64

func (s *score) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSuffix(strings.TrimSpace(unquoted), "%")
		if raw == "" {
			*s = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return fmt.Errorf("score %s is not a number", data)
	}
	*s = score(v)
	return nil
}

// Int rounds to the nearest integer and clamps to 0-100
func (s score) Int() int {
	v := math.Round(float64(s))
	switch {
	case v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	return int(v)
}

// decodeCompletion strips markdown fences and chatter around the first JSON
// object or array in resp, then decodes it into out.
func decodeCompletion(resp string, out interface{}) error {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if value, ok := extractFirstJSONValue(cleaned); ok {
		cleaned = value
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// extractFirstJSONValue finds the first outermost balanced {...} or [...]
func extractFirstJSONValue(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return "", false
	}
	open := s[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
