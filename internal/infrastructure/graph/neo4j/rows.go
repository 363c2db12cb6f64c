package neo4j

import (
	"fmt"
	"math"
	"time"
)

func stringValue(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func int64Value(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(math.Round(v))
	default:
		return 0
	}
}

func floatValue(row map[string]any, key string) (float64, bool) {
	switch v := row[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// stringSlice converts a list property. Missing or null lists become empty.
func stringSlice(row map[string]any, key string) []string {
	items, ok := row[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mapValue(row map[string]any, key string) map[string]any {
	m, _ := row[key].(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// timeValue accepts driver temporal values and RFC 3339 text.
func timeValue(row map[string]any, key string) (time.Time, bool) {
	switch v := row[key].(type) {
	case time.Time:
		return v.UTC(), true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

func timestampText(row map[string]any, key string) string {
	if t, ok := timeValue(row, key); ok {
		return t.Format(time.RFC3339)
	}
	return stringValue(row, key)
}
