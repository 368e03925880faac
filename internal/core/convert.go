package core

// convert.go normalizes record values for comparison and display.
//
// Store-backed records carry native Go values, but range bounds arrive as
// user-typed strings and some sources deliver dates and numbers as text, so
// parsing tolerates the usual artifacts:
//   - Currency symbols, thousands separators, accounting negatives "(12.5)"
//   - Several date layouts (ISO, US, named months, RFC 3339 timestamps)
//   - yes/no, true/false, 1/0 booleans

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// DateLayout is the canonical layout used when rendering dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateLayout,
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseNumber parses user- or source-provided numeric text.
// Returns false for empty or malformed input.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// ParseDate parses a date or timestamp in any supported layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

// BoolValue extracts a boolean from a record value. Strings go through
// ParseBool, so stores that hand back "1" or "true" still compare.
func BoolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		return ParseBool(b)
	default:
		return false, false
	}
}

// NumericValue extracts a number from a record value.
// Returns false when v is missing or not numeric.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		return ParseNumber(n)
	default:
		return 0, false
	}
}

// DateValue extracts a time from a record value.
func DateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return ParseDate(t)
	default:
		return time.Time{}, false
	}
}

// StringValue renders any record value as plain text for searching and
// string comparison.
func StringValue(v any) string {
	return FormatCell(v, FieldText)
}

// FormatCell renders a value the way it appears in tables and exports.
// Dates use DateLayout, booleans Yes/No, numbers their shortest form.
func FormatCell(v any, ft FieldType) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if ft == FieldDate {
			if t, ok := ParseDate(val); ok {
				return t.Format(DateLayout)
			}
		}
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(DateLayout)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatField is FormatCell with an optional time layout for date fields.
func formatField(v any, ft FieldType, layout string) string {
	if ft == FieldDate && layout != "" {
		if t, ok := DateValue(v); ok {
			return t.Format(layout)
		}
	}
	return FormatCell(v, ft)
}
