// Where: internal/template/value.go
// What: Coercion helpers for parsed template values.
// Why: Keep the resolver and intrinsic functions concise.
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// typeName reports the CloudFormation-facing name of a value's type,
// used when composing shape-error messages.
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "Null"
	case string:
		return "String"
	case bool:
		return "Boolean"
	case int, int64, float64:
		return "Number"
	case []any:
		return "List"
	case map[string]any:
		return "Map"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asString(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// asInt coerces ints, floats and numeric strings. Template values read
// from YAML arrive as int, from JSON as float64, and parameter values
// are always carried as strings.
func asInt(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case float64:
		return int(typed), true
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func asBool(value any) (bool, bool) {
	b, ok := value.(bool)
	return b, ok
}

func asSlice(value any) ([]any, bool) {
	v, ok := value.([]any)
	return v, ok
}
