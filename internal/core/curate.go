package core

import (
	"slices"
	"time"
)

// Curate filters snapshot with fc, then stable-sorts the survivors by sc.
// The snapshot is never modified; records with equal sort keys keep their
// snapshot order in both directions.
func Curate(def TableDefinition, snapshot []Record, fc FilterCriteria, sc SortCriteria) []Record {
	pred := NewPredicate(def, fc)

	out := make([]Record, 0, len(snapshot))
	for _, r := range snapshot {
		if pred.Matches(r) {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, NewComparator(def, sc).Compare)
	return out
}

// Result is a curated view of one table for one session.
type Result struct {
	Table    string         `json:"table"`
	Records  []Record       `json:"records"`
	Visible  int            `json:"visible"`
	Total    int            `json:"total"`
	Filter   FilterCriteria `json:"filter"`
	Filtered bool           `json:"filtered"` // Filter constrains at least one field
	Sort     SortCriteria   `json:"sort"`
	Warnings []string       `json:"warnings,omitempty"`
	LoadedAt time.Time      `json:"loaded_at"`

	// Err is set when the snapshot could not be loaded. Records is then empty.
	Err error `json:"-"`
}

// Unavailable reports whether the snapshot fetch failed.
func (r Result) Unavailable() bool {
	return r.Err != nil
}
