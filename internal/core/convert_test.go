package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"positive integer", "123", 123, true},
		{"zero", "0", 0, true},
		{"negative integer", "-456", -456, true},
		{"decimal number", "123.45", 123.45, true},
		{"leading decimal point", ".99", 0.99, true},
		{"trailing decimal point", "5.", 5, true},
		{"scientific notation", "1.5e3", 1500, true},
		{"thousands separators", "1,234,567", 1234567, true},
		{"dollar sign", "$1,234.56", 1234.56, true},
		{"euro sign", "€99", 99, true},
		{"accounting negative", "(12.50)", -12.5, true},
		{"surrounding whitespace", "  42  ", 42, true},

		{"empty string", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"letters", "abc", 0, false},
		{"mixed", "12abc", 0, false},
		{"double dot", "1.2.3", 0, false},
		{"lone sign", "-", 0, false},
		{"NaN text", "NaN", 0, false},
		{"Inf text", "Inf", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	jan15 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{"ISO date", "2024-01-15", jan15, true},
		{"slash ISO", "2024/01/15", jan15, true},
		{"US short", "1/15/2024", jan15, true},
		{"US padded", "01/15/2024", jan15, true},
		{"named month", "Jan 15, 2024", jan15, true},
		{"day month year", "15 Jan 2024", jan15, true},
		{"RFC 3339", "2024-01-15T09:30:00Z", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), true},
		{"space separated time", "2024-01-15 09:30:00", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), true},
		{"datetime-local input", "2024-01-15T09:30", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), true},

		{"empty", "", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"invalid month", "2024-13-01", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"true", "T", "yes", "Y", "1"} {
		if v, ok := ParseBool(in); !ok || !v {
			t.Errorf("ParseBool(%q) = %v, %v", in, v, ok)
		}
	}
	for _, in := range []string{"false", "f", "NO", "n", "0"} {
		if v, ok := ParseBool(in); !ok || v {
			t.Errorf("ParseBool(%q) = %v, %v", in, v, ok)
		}
	}
	if _, ok := ParseBool("maybe"); ok {
		t.Error("ParseBool(maybe) ok = true")
	}
}

// ----------------------------------------------------------------------------
// Record value extraction
// ----------------------------------------------------------------------------

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{nil, 0, false},
		{3, 3, true},
		{int64(-7), -7, true},
		{int32(9), 9, true},
		{2.5, 2.5, true},
		{float32(0.5), 0.5, true},
		{"1,500", 1500, true},
		{"n/a", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := NumericValue(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("NumericValue(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDateValue(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	if got, ok := DateValue(at); !ok || !got.Equal(at) {
		t.Errorf("DateValue(time) = %v, %v", got, ok)
	}
	if got, ok := DateValue(&at); !ok || !got.Equal(at) {
		t.Errorf("DateValue(*time) = %v, %v", got, ok)
	}
	if _, ok := DateValue(time.Time{}); ok {
		t.Error("zero time should be missing")
	}
	if _, ok := DateValue((*time.Time)(nil)); ok {
		t.Error("nil *time.Time should be missing")
	}
	if got, ok := DateValue("2025-05-01"); !ok || got.Day() != 1 {
		t.Errorf("DateValue(string) = %v, %v", got, ok)
	}
	if _, ok := DateValue(42); ok {
		t.Error("int should not be a date")
	}
}

// ----------------------------------------------------------------------------
// FormatCell Tests
// ----------------------------------------------------------------------------

func TestFormatCell(t *testing.T) {
	at := time.Date(2024, 2, 20, 18, 45, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    any
		ft   FieldType
		want string
	}{
		{"nil", nil, FieldText, ""},
		{"string", "Bob", FieldText, "Bob"},
		{"date string normalized", "02/20/2024", FieldDate, "2024-02-20"},
		{"unparseable date kept", "someday", FieldDate, "someday"},
		{"time", at, FieldDate, "2024-02-20"},
		{"zero time", time.Time{}, FieldDate, ""},
		{"true", true, FieldBool, "Yes"},
		{"false", false, FieldBool, "No"},
		{"whole float", 32.0, FieldNumeric, "32"},
		{"fractional float", 45.5, FieldNumeric, "45.5"},
		{"int", 12, FieldNumeric, "12"},
		{"int64", int64(-3), FieldNumeric, "-3"},
		{"stringer", FieldEnum, FieldText, "enum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.v, tt.ft); got != tt.want {
				t.Errorf("FormatCell(%#v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestFieldSpecFormat_Layout(t *testing.T) {
	at := time.Date(2024, 2, 20, 18, 45, 0, 0, time.UTC)
	f := FieldSpec{Name: "start", Type: FieldDate, Layout: "2006-01-02 15:04"}
	if got := f.Format(at); got != "2024-02-20 18:45" {
		t.Errorf("Format() = %q", got)
	}
	if got := f.Format(nil); got != "" {
		t.Errorf("Format(nil) = %q", got)
	}
}
