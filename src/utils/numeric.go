package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mark-price-dashboard/src/helpers"
)

// -----------------------------------------------------------------------------
// Numeric Formatter
// -----------------------------------------------------------------------------

// ToNumber parses a float64 out of a float64 or string input. Fails fast on
// anything unparseable, including NaN.
func ToNumber(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) {
			return 0, helpers.NewParseError("ToNumber: NaN input", nil)
		}
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, helpers.NewParseError(fmt.Sprintf("ToNumber: unparseable %q", v), err)
		}
		return f, nil
	default:
		return 0, helpers.NewParseError(fmt.Sprintf("ToNumber: unsupported type %T", value), nil)
	}
}

// -----------------------------------------------------------------------------

// FormatFixed renders a numeric input with a fixed number of decimals.
func FormatFixed(value interface{}, decimals int) (string, error) {
	f, err := ToNumber(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', decimals, 64), nil
}

// -----------------------------------------------------------------------------

// RoundFixed rounds by round-tripping through FormatFixed. The double hop is
// intentional: the numeric value matches exactly what will be displayed.
func RoundFixed(value interface{}, decimals int) (float64, error) {
	s, err := FormatFixed(value, decimals)
	if err != nil {
		return 0, err
	}
	return ToNumber(s)
}

// -----------------------------------------------------------------------------

// Capitalize upcases the first rune and downcases the rest, turning status
// constants like "HEDGE" into display labels like "Hedge".
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
