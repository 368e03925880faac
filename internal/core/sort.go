package core

import (
	"cmp"

	"golang.org/x/text/collate"
)

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Arrow returns the header indicator for the direction.
func (d SortDirection) Arrow() string {
	if d == SortDesc {
		return "▼"
	}
	return "▲"
}

// SortCriteria names the sort key and direction.
type SortCriteria struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSortCriteria sorts by the table's default key, ascending.
func DefaultSortCriteria(def TableDefinition) SortCriteria {
	return SortCriteria{Key: def.Info.DefaultSort, Direction: SortAsc}
}

// Toggle selects field ascending, or flips the direction when field is
// already the key.
func (s SortCriteria) Toggle(field string) SortCriteria {
	if s.Key != field {
		return SortCriteria{Key: field, Direction: SortAsc}
	}
	if s.Direction == SortAsc {
		return SortCriteria{Key: field, Direction: SortDesc}
	}
	return SortCriteria{Key: field, Direction: SortAsc}
}

// Comparator orders records by one field. It holds a collator and must not
// be shared between goroutines.
type Comparator struct {
	field    FieldSpec
	known    bool
	desc     bool
	collator *collate.Collator
}

// NewComparator builds a comparator for s over def's fields. An unknown key
// yields a comparator that reports every pair equal.
func NewComparator(def TableDefinition, s SortCriteria) *Comparator {
	c := &Comparator{desc: s.Direction == SortDesc}
	c.field, c.known = def.Field(s.Key)
	if c.known && (c.field.Type == FieldText || c.field.Type == FieldEnum) {
		var opts []collate.Option
		if c.field.CaseInsensitive {
			opts = append(opts, collate.IgnoreCase)
		}
		c.collator = collate.New(def.locale(), opts...)
	}
	return c
}

// Compare returns -1, 0 or 1. Missing values order before present ones in
// ascending order; descending negates the ascending result.
func (c *Comparator) Compare(a, b Record) int {
	if !c.known {
		return 0
	}
	r := c.ascending(a[c.field.Name], b[c.field.Name])
	if c.desc {
		return -r
	}
	return r
}

func (c *Comparator) ascending(av, bv any) int {
	switch c.field.Type {
	case FieldNumeric:
		an, aok := NumericValue(av)
		bn, bok := NumericValue(bv)
		if r, done := compareMissing(aok, bok); done {
			return r
		}
		return cmp.Compare(an, bn)

	case FieldDate:
		at, aok := DateValue(av)
		bt, bok := DateValue(bv)
		if r, done := compareMissing(aok, bok); done {
			return r
		}
		return at.Compare(bt)

	case FieldBool:
		ab, aok := BoolValue(av)
		bb, bok := BoolValue(bv)
		if r, done := compareMissing(aok, bok); done {
			return r
		}
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}

	default:
		aok, bok := av != nil, bv != nil
		if r, done := compareMissing(aok, bok); done {
			return r
		}
		return c.collator.CompareString(StringValue(av), StringValue(bv))
	}
}

// compareMissing orders absent values first. done is false when both are present.
func compareMissing(aok, bok bool) (int, bool) {
	switch {
	case aok && bok:
		return 0, false
	case !aok && !bok:
		return 0, true
	case !aok:
		return -1, true
	default:
		return 1, true
	}
}

// Compare is a one-shot convenience around NewComparator.
func Compare(def TableDefinition, a, b Record, s SortCriteria) int {
	return NewComparator(def, s).Compare(a, b)
}
