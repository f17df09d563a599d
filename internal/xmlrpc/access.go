package xmlrpc

import "strconv"

// Struct returns v as a struct value, nil when it is something else.
func Struct(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Array returns v as an array value, nil when it is something else.
// Servers that answer "false" for an empty list decode to nil too.
func Array(v any) []any {
	a, _ := v.([]any)
	return a
}

// String returns the textual form of scalar values.
func String(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns v as an integer. Numeric strings are converted, anything else is 0.
func Int(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
