package research

import (
	"math"
	"strconv"
	"strings"
)

// Coercion helpers shared by the section validators. Every helper is total:
// wrong types and absent keys produce the documented default, never an error.

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func strField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := asString(m[key])
	return s
}

// strSliceField coerces an array field to strings, dropping elements that
// have no string rendering. Absent or non-array values become an empty
// slice.
func strSliceField(m map[string]any, key string) []string {
	if m == nil {
		return []string{}
	}
	arr, ok := m[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := asString(v); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

func objSliceField(m map[string]any, key string) []map[string]any {
	if m == nil {
		return nil
	}
	arr, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// enumField whitelists a string field against allowed, substituting def for
// anything out of vocabulary. Matching is case-insensitive on trimmed input.
func enumField(m map[string]any, key string, allowed []string, def string) string {
	s := strings.ToLower(strField(m, key))
	for _, a := range allowed {
		if s == a {
			return a
		}
	}
	return def
}

// scoreField clamps a numeric field to [min, max], falling back to def when
// the value is absent or unparseable. Numeric strings are accepted.
func scoreField(m map[string]any, key string, min, max, def float64) float64 {
	if m == nil {
		return def
	}
	var n float64
	switch v := m[key].(type) {
	case float64:
		n = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// round1 rounds to one decimal place.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
