// Package jsonx pulls JSON objects out of free-text model responses.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrNoJSON is returned when no parseable JSON object is found in the text.
var ErrNoJSON = eris.New("jsonx: no JSON object found")

var fenceRe = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_-]+)?\\s*(.*?)```")

// Extract locates a JSON object in raw model output. Strategies are tried
// in order: direct parse of the trimmed text, the contents of a fenced code
// block, and a brace-balanced scan from the first "{". The first strategy
// whose result parses to a non-null object wins.
func Extract(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrNoJSON
	}

	if raw, ok := parseObject(trimmed); ok {
		return raw, nil
	}

	for _, m := range fenceRe.FindAllStringSubmatch(trimmed, -1) {
		if raw, ok := parseObject(strings.TrimSpace(m[1])); ok {
			return raw, nil
		}
	}

	if span := balancedSpan(trimmed); span != "" {
		if raw, ok := parseObject(span); ok {
			return raw, nil
		}
	}

	return nil, ErrNoJSON
}

// ExtractMap is Extract plus a decode into a generic map, the shape the
// section validators consume.
func ExtractMap(text string) (map[string]any, error) {
	raw, err := Extract(text)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrap(err, "jsonx: decode object")
	}
	return m, nil
}

// parseObject reports whether s parses as a JSON object (not null, not a
// bare array or scalar).
func parseObject(s string) (json.RawMessage, bool) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return json.RawMessage(strings.TrimSpace(s)), true
}

// balancedSpan scans forward from the first "{" counting brace depth,
// skipping braces inside quoted strings and honoring backslash escapes.
// Returns the balanced span or "" if the braces never close.
func balancedSpan(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
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

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
