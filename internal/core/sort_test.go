package core

import (
	"slices"
	"testing"
	"time"
)

func TestSortCriteria_Toggle(t *testing.T) {
	s := SortCriteria{Key: "name", Direction: SortAsc}

	s = s.Toggle("name")
	if s != (SortCriteria{Key: "name", Direction: SortDesc}) {
		t.Errorf("same key should flip to desc, got %+v", s)
	}
	s = s.Toggle("name")
	if s != (SortCriteria{Key: "name", Direction: SortAsc}) {
		t.Errorf("same key should flip back to asc, got %+v", s)
	}
	s = s.Toggle("name").Toggle("hours")
	if s != (SortCriteria{Key: "hours", Direction: SortAsc}) {
		t.Errorf("new key should start asc, got %+v", s)
	}
}

func TestDefaultSortCriteria(t *testing.T) {
	got := DefaultSortCriteria(rosterDef())
	if got != (SortCriteria{Key: "name", Direction: SortAsc}) {
		t.Errorf("DefaultSortCriteria() = %+v", got)
	}
}

func TestCompare(t *testing.T) {
	def := rosterDef()
	asc := func(key string) SortCriteria { return SortCriteria{Key: key, Direction: SortAsc} }
	desc := func(key string) SortCriteria { return SortCriteria{Key: key, Direction: SortDesc} }

	tests := []struct {
		name string
		a, b Record
		s    SortCriteria
		want int
	}{
		{"numbers ascending", Record{"hours": 32.0}, Record{"hours": 45.5}, asc("hours"), -1},
		{"numbers descending", Record{"hours": 32.0}, Record{"hours": 45.5}, desc("hours"), 1},
		{"mixed numeric types", Record{"hours": 40}, Record{"hours": 40.0}, asc("hours"), 0},
		{"numeric strings", Record{"hours": "9"}, Record{"hours": "10"}, asc("hours"), -1},
		{"strings", Record{"name": "Alice"}, Record{"name": "Bob"}, asc("name"), -1},
		{"strings equal", Record{"name": "Bob"}, Record{"name": "Bob"}, asc("name"), 0},
		{"case-sensitive field distinguishes case", Record{"name": "bob"}, Record{"name": "Bob"}, asc("name"), -1},
		{"case-insensitive field ignores case", Record{"email": "BOB@x"}, Record{"email": "bob@x"}, asc("email"), 0},
		{"locale ordering ignores accents at primary level", Record{"name": "Émile"}, Record{"name": "Fred"}, asc("name"), -1},
		{"dates chronological", Record{"joined": "2023-11-10"}, Record{"joined": "2024-01-15"}, asc("joined"), -1},
		{"time values", Record{"joined": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}, Record{"joined": "2024-01-01"}, asc("joined"), 1},
		{"missing sorts first ascending", Record{}, Record{"hours": 0.0}, asc("hours"), -1},
		{"missing sorts last descending", Record{}, Record{"hours": 0.0}, desc("hours"), 1},
		{"both missing tie", Record{}, Record{}, asc("hours"), 0},
		{"unknown key is a tie", Record{"name": "A"}, Record{"name": "B"}, asc("nope"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(def, tt.a, tt.b, tt.s); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompare_BoolField(t *testing.T) {
	def := rosterDef()
	def.FieldSpecs = append(def.FieldSpecs, FieldSpec{Name: "active", Label: "Active", Type: FieldBool, Sortable: true})
	asc := SortCriteria{Key: "active", Direction: SortAsc}

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"false before true", false, true, -1},
		{"stored as text", "yes", "0", 1},
		{"mixed representations tie", true, "1", 0},
		{"unparseable sorts as missing", "maybe", false, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(def, Record{"active": tt.a}, Record{"active": tt.b}, asc); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	def := rosterDef()
	recs := volunteers()

	for _, key := range []string{"name", "email", "hours", "attendance", "joined", "role"} {
		s := SortCriteria{Key: key, Direction: SortAsc}
		cmp := NewComparator(def, s)
		for _, a := range recs {
			if cmp.Compare(a, a) != 0 {
				t.Errorf("%s: compare(a,a) != 0 for %v", key, a["id"])
			}
			for _, b := range recs {
				if cmp.Compare(a, b) != -cmp.Compare(b, a) {
					t.Errorf("%s: not antisymmetric for %v,%v", key, a["id"], b["id"])
				}
				for _, c := range recs {
					if cmp.Compare(a, b) <= 0 && cmp.Compare(b, c) <= 0 && cmp.Compare(a, c) > 0 {
						t.Errorf("%s: not transitive for %v,%v,%v", key, a["id"], b["id"], c["id"])
					}
				}
			}
		}
	}
}

func TestCompare_ReversalOnTieFreeField(t *testing.T) {
	def := rosterDef()
	recs := volunteers()

	ascending := Curate(def, recs, DefaultFilterCriteria(def), SortCriteria{Key: "name", Direction: SortAsc})
	descending := Curate(def, recs, DefaultFilterCriteria(def), SortCriteria{Key: "name", Direction: SortDesc})

	reversed := slices.Clone(ids(descending))
	slices.Reverse(reversed)
	if !slices.Equal(ids(ascending), reversed) {
		t.Errorf("desc is not the reverse of asc: %v vs %v", ids(ascending), ids(descending))
	}
}

func TestSortDirection_Arrow(t *testing.T) {
	if SortAsc.Arrow() != "▲" || SortDesc.Arrow() != "▼" {
		t.Errorf("arrows = %q %q", SortAsc.Arrow(), SortDesc.Arrow())
	}
}
