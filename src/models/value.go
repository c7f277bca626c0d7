package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer values arrive either JSON-decoded (float64, string, []any) or
// BSON-decoded (int32, int64, primitive.A). The helpers below coerce both.

// AsString renders a value the way the respondent flow compares it. A missing
// or null value renders as "", and a list renders as its elements joined by ",".
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case primitive.ObjectID:
		return x.Hex()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339)
	}
	if list, ok := asList(v); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = AsString(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// AsNumber is a best-effort numeric parse. It reports false for missing
// values, blank strings, non-numeric text and non-finite results.
func AsNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AsStrings returns the elements of a list value. A scalar becomes a
// one-element list; nil becomes an empty list.
func AsStrings(v any) []string {
	if v == nil {
		return nil
	}
	if list, ok := asList(v); ok {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, AsString(item))
		}
		return out
	}
	return []string{AsString(v)}
}

// IsBlank is the emptiness test of conditional rules: nil or "".
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// IsMissing is the emptiness test of required fields: blank, or an empty list.
func IsMissing(v any) bool {
	if IsBlank(v) {
		return true
	}
	if list, ok := asList(v); ok {
		return len(list) == 0
	}
	return false
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case primitive.A:
		return []any(x), true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatNumber renders a bound for user-facing messages.
func FormatNumber(f float64) string {
	return formatFloat(f)
}
