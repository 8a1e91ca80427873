package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validator is implemented by decoded types that check their own invariants.
type Validator interface {
	Validate() error
}

// Decode completes req in JSON mode and decodes the response strictly into
// T. Extraction, decoding and validation failures become
// ErrMalformedResponse; other errors pass through unchanged.
func Decode[T any](ctx context.Context, client Client, req Request, opts Options) (T, error) {
	var zero T
	opts.Format = FormatJSON

	resp, err := client.Complete(ctx, req, opts)
	if err != nil {
		return zero, err
	}
	return Parse[T](resp.Text)
}

// Parse extracts and validates a JSON object of type T from model text.
func Parse[T any](text string) (T, error) {
	var v T
	raw, err := ExtractJSON(text)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// Unknown fields are tolerated; type mismatches are not.
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: decoding: %v", ErrMalformedResponse, err)
	}

	if val, ok := any(&v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return v, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return v, nil
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n(.*?)```")

var errNoJSON = errors.New("no JSON object in response")

// ExtractJSON returns the JSON object in text: the whole body when it is
// valid JSON, then the first fenced block, then the first balanced {...}.
func ExtractJSON(text string) ([]byte, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, errors.New("empty response")
	}
	if isObject(body) {
		return []byte(body), nil
	}
	for _, m := range fencedJSON.FindAllStringSubmatch(body, -1) {
		if inner := strings.TrimSpace(m[1]); isObject(inner) {
			return []byte(inner), nil
		}
	}
	if span, ok := balancedObject(body); ok && isObject(span) {
		return []byte(span), nil
	}
	return nil, errNoJSON
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// balancedObject scans for the first '{' and returns the span up to its
// matching '}', skipping braces inside strings.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
