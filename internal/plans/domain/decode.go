package domain

import "strings"

// Tolerant accessors for loosely-typed document fields. Store documents come
// from a schemaless backend; a missing or differently-typed field is data
// drift, not a programming error, so these return zero values instead of
// panicking.

func docString(data map[string]interface{}, key string) string {
	value, _ := data[key].(string)
	return value
}

func docTrimmedString(data map[string]interface{}, key string) string {
	return strings.TrimSpace(docString(data, key))
}

func docStringSlice(data map[string]interface{}, key string) []string {
	raw, ok := data[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if text, ok := item.(string); ok && text != "" {
			out = append(out, text)
		}
	}
	return out
}

func docMap(data map[string]interface{}, key string) map[string]interface{} {
	value, _ := data[key].(map[string]interface{})
	return value
}

func docSlice(data map[string]interface{}, key string) []interface{} {
	value, _ := data[key].([]interface{})
	return value
}

func docNumber(data map[string]interface{}, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func docBool(data map[string]interface{}, key string) bool {
	value, _ := data[key].(bool)
	return value
}
