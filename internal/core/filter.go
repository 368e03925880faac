package core

import (
	"maps"
	"math"
	"strings"
)

// Wildcard is the categorical filter value that matches every record.
const Wildcard = "all"

// NumericRange is an inclusive [Min, Max] interval.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Unbounded covers every finite value. Fields without explicit Bounds use it.
var Unbounded = NumericRange{Min: -math.MaxFloat64, Max: math.MaxFloat64}

// Contains reports whether min <= v <= max.
func (r NumericRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FullRange returns the field's default range filter.
func (f FieldSpec) FullRange() NumericRange {
	if f.Bounds == (NumericRange{}) {
		return Unbounded
	}
	return f.Bounds
}

// FilterCriteria holds the active search, categorical and range filters.
type FilterCriteria struct {
	SearchText  string                  `json:"search"`
	Categorical map[string]string       `json:"categorical"`
	Ranges      map[string]NumericRange `json:"ranges"`
}

// DefaultFilterCriteria returns the identity filter for def: empty search,
// every categorical field on Wildcard, every range at its full bounds.
func DefaultFilterCriteria(def TableDefinition) FilterCriteria {
	c := FilterCriteria{
		Categorical: make(map[string]string),
		Ranges:      make(map[string]NumericRange),
	}
	for _, f := range def.FieldSpecs {
		if f.Categorical {
			c.Categorical[f.Name] = Wildcard
		}
		if f.Range {
			c.Ranges[f.Name] = f.FullRange()
		}
	}
	return c
}

// Clone returns a deep copy so callers can't mutate session state.
func (c FilterCriteria) Clone() FilterCriteria {
	return FilterCriteria{
		SearchText:  c.SearchText,
		Categorical: maps.Clone(c.Categorical),
		Ranges:      maps.Clone(c.Ranges),
	}
}

// IsDefault reports whether c constrains nothing for def.
func (c FilterCriteria) IsDefault(def TableDefinition) bool {
	return len(NewPredicate(def, c).checks) == 0
}

// Predicate is a compiled FilterCriteria. All checks are AND-combined.
type Predicate struct {
	checks []func(Record) bool
}

// NewPredicate compiles c against def. Criteria left at their defaults add
// no check, so the default criteria match every record.
func NewPredicate(def TableDefinition, c FilterCriteria) Predicate {
	var p Predicate

	if c.SearchText != "" {
		var fields []string
		for _, f := range def.FieldSpecs {
			if f.Searchable {
				fields = append(fields, f.Name)
			}
		}
		if len(fields) > 0 {
			needle := strings.ToLower(c.SearchText)
			p.checks = append(p.checks, func(r Record) bool {
				for _, name := range fields {
					if strings.Contains(strings.ToLower(StringValue(r[name])), needle) {
						return true
					}
				}
				return false
			})
		}
	}

	for _, f := range def.FieldSpecs {
		if f.Categorical {
			want, ok := c.Categorical[f.Name]
			if !ok || want == "" || want == Wildcard {
				continue
			}
			name := f.Name
			p.checks = append(p.checks, func(r Record) bool {
				v, present := r[name]
				return present && v != nil && StringValue(v) == want
			})
		}

		if f.Range {
			rng, ok := c.Ranges[f.Name]
			if !ok || rng == f.FullRange() {
				continue
			}
			name, defaultZero := f.Name, f.DefaultZero
			p.checks = append(p.checks, func(r Record) bool {
				v, present := NumericValue(r[name])
				if !present {
					if !defaultZero {
						return false
					}
					v = 0
				}
				return rng.Contains(v)
			})
		}
	}

	return p
}

// Matches reports whether r passes every active filter.
func (p Predicate) Matches(r Record) bool {
	for _, check := range p.checks {
		if !check(r) {
			return false
		}
	}
	return true
}

// Matches is a one-shot convenience around NewPredicate.
func Matches(def TableDefinition, r Record, c FilterCriteria) bool {
	return NewPredicate(def, c).Matches(r)
}
