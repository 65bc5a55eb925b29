package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maxDecodeAttempts bounds the fallback scan over candidate start brackets.
const maxDecodeAttempts = 32

// ExtractJSON locates the JSON payload in free-form model output. It first
// slices from the first '{' or '[' to the last '}' or ']'. When that slice
// does not parse (prose after the payload that itself contains brackets, or
// a bracket in a preamble) it decodes a single value starting at each
// candidate bracket in turn.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object or array in model output", ErrMalformedResponse)
	}
	end := max(strings.LastIndex(text, "}"), strings.LastIndex(text, "]"))
	if end < start {
		return nil, fmt.Errorf("%w: no closing bracket in model output", ErrMalformedResponse)
	}

	candidate := text[start : end+1]
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}

	var lastErr error
	offset := start
	for attempt := 0; attempt < maxDecodeAttempts; attempt++ {
		var raw json.RawMessage
		dec := json.NewDecoder(strings.NewReader(text[offset:]))
		err := dec.Decode(&raw)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		next := strings.IndexAny(text[offset+1:], "{[")
		if next < 0 {
			break
		}
		offset += next + 1
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, lastErr)
}
