package utils

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// missingTokens are raw cell values treated as absent data.
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"null": true,
	"none": true,
	"na":   true,
}

// IsMissingToken reports whether a raw cell value stands for "no data".
func IsMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseValue converts a raw cell into int, float64, string or nil (missing).
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)
	if IsMissingToken(s) {
		return nil
	}

	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ToFloat converts supported numeric values to float64.
// Missing values, NaN and non-numeric strings report false.
func ToFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case float32:
		return finite(float64(val))
	case float64:
		return finite(val)
	case bool:
		return 0, false
	case string:
		return parseFloat(val)
	case []byte:
		// numeric columns come back from lib/pq as text
		return parseFloat(string(val))
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() >= reflect.Int && rv.Kind() <= reflect.Float64 {
			return finite(rv.Convert(reflect.TypeOf(float64(0))).Float())
		}
		return 0, false
	}
}

// IsMissing reports whether a record value counts as absent.
func IsMissing(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	case string:
		return IsMissingToken(val)
	case []byte:
		return val == nil
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
