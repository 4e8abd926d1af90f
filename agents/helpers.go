package agents

import "strconv"

// payloadMap coerces an opaque message payload into a string-keyed map,
// returning an empty map for anything else.
func payloadMap(payload interface{}) map[string]interface{} {
	if m, ok := payload.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// stringField reads a string field with a default.
func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// floatField reads a numeric field with a default, tolerating the numeric
// shapes JSON decoding and option maps produce.
func floatField(m map[string]interface{}, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// sliceField reads a slice field, returning nil when absent.
func sliceField(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

// hasField reports whether a field is present and non-empty.
func hasField(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}
