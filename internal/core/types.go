package core

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// FieldType represents the semantic type of a record field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
)

// String returns the lowercase name used in JSON and templates.
func (ft FieldType) String() string {
	switch ft {
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	default:
		return "text"
	}
}

// MarshalText lets FieldType encode as its name.
func (ft FieldType) MarshalText() ([]byte, error) {
	return []byte(ft.String()), nil
}

// FieldSpec describes one field of a curated table.
type FieldSpec struct {
	Name            string       // Record key
	Label           string       // Column header, also used as the export header
	Type            FieldType    // Semantic type, drives comparison and formatting
	Searchable      bool         // Included in free-text search (OR-combined)
	Categorical     bool         // Offers an exact-match filter with wildcard
	Range           bool         // Offers an inclusive numeric range filter
	Bounds          NumericRange // Full range for the range filter
	Sortable        bool         // Header can toggle sort
	CaseInsensitive bool         // String comparisons ignore case
	DefaultZero     bool         // Missing numeric value counts as 0
	EnumValues      []string     // Choices for categorical filters
	Layout          string       // Time layout for FieldDate display (default DateLayout)
}

// HeaderLabel returns Label, falling back to Name.
func (f FieldSpec) HeaderLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Format renders v for tables and exports.
func (f FieldSpec) Format(v any) string {
	return formatField(v, f.Type, f.Layout)
}

// TableInfo contains display information about a curated table.
type TableInfo struct {
	Key           string       // Unique identifier: "users"
	Group         string       // Dashboard grouping: "Roster", "Events"
	Label         string       // Display name: "Volunteers"
	Description   string       // One-line summary for the dashboard card
	IdentityField string       // Unique per snapshot, used as display key
	DefaultSort   string       // Sort key applied at session start
	Columns       []string     // Field names in display order
	Locale        language.Tag // Collation locale for string ordering
}

// Record is a flat mapping from field name to a primitive value
// (string, number, time.Time, bool or nil).
type Record map[string]any

// RecordSource yields a full snapshot of records. Pagination, filtering and
// sorting are never delegated to the source.
type RecordSource interface {
	FetchAll(ctx context.Context) ([]Record, error)
}

// RecordSourceFunc adapts a function to RecordSource.
type RecordSourceFunc func(ctx context.Context) ([]Record, error)

// FetchAll calls f.
func (f RecordSourceFunc) FetchAll(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// FetchFunc loads a snapshot for a table from the backing store. now is the
// service clock, used for fields derived from time such as event status.
type FetchFunc func(ctx context.Context, store Store, now time.Time) ([]Record, error)

// TableDefinition contains everything needed to curate a table.
type TableDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec
	Fetch      FetchFunc
}

// Field returns the spec for name.
func (t TableDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range t.FieldSpecs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Source binds the table's fetch function to a store and a clock.
func (t TableDefinition) Source(store Store, now func() time.Time) RecordSource {
	return RecordSourceFunc(func(ctx context.Context) ([]Record, error) {
		if t.Fetch == nil {
			return nil, nil
		}
		return t.Fetch(ctx, store, now())
	})
}

// Collation locale fallback when a table leaves Locale unset.
var defaultLocale = language.English

func (t TableDefinition) locale() language.Tag {
	if t.Info.Locale == language.Und {
		return defaultLocale
	}
	return t.Info.Locale
}
