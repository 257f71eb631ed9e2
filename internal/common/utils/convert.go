// Package utils provides shared conversion and retry helpers.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"service-orchestrator/internal/common/errors"
)

// ToFloat64 converts numeric types and strings to float64.
// String values are parsed with strconv.ParseFloat after trimming whitespace.
func ToFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, errors.ValidationError(fmt.Sprintf("cannot convert %T to float64", value))
	}
}

// Stringify renders a value as text. Lists become comma-joined element
// strings; nil becomes the empty string; everything else goes through
// fmt.Sprint.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a trailing ".0" so templated parameters stay clean.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
