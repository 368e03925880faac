package core

// session.go holds per-visitor curation state.
//
// A Session owns one Curation per table. Sessions are kept in a TTL cache
// and each carries a mutex, so two requests for the same session are
// applied one after the other while different sessions never contend.

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Curation is the filter, sort and snapshot state for one table.
type Curation struct {
	def      TableDefinition
	filter   FilterCriteria
	sort     SortCriteria
	snapshot []Record
	loaded   bool
	loadedAt time.Time
	srcErr   error
	warnings []string
}

// NewCuration starts a curation of def with default criteria and no snapshot.
func NewCuration(def TableDefinition) *Curation {
	return &Curation{
		def:    def,
		filter: DefaultFilterCriteria(def),
		sort:   DefaultSortCriteria(def),
	}
}

// Definition returns the curated table's definition.
func (c *Curation) Definition() TableDefinition { return c.def }

// Filter returns a copy of the active filter criteria.
func (c *Curation) Filter() FilterCriteria { return c.filter.Clone() }

// Sort returns the active sort criteria.
func (c *Curation) Sort() SortCriteria { return c.sort }

// Loaded reports whether a snapshot is held.
func (c *Curation) Loaded() bool { return c.loaded }

// Load replaces the snapshot from src. On failure the previous snapshot is
// dropped and the returned error wraps ErrSourceUnavailable.
func (c *Curation) Load(ctx context.Context, src RecordSource) error {
	records, err := src.FetchAll(ctx)
	if err != nil {
		c.snapshot = nil
		c.loaded = false
		c.srcErr = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, c.def.Info.Key, err)
		return c.srcErr
	}
	c.SetSnapshot(records, time.Now())
	return nil
}

// SetSnapshot installs an already-fetched snapshot.
func (c *Curation) SetSnapshot(records []Record, at time.Time) {
	c.snapshot = records
	c.loaded = true
	c.loadedAt = at
	c.srcErr = nil
}

// SetSearchText sets the free-text search. Empty clears it.
func (c *Curation) SetSearchText(text string) {
	c.warnings = nil
	c.filter.SearchText = text
}

// SetCategoricalFilter selects value (or Wildcard) for a categorical field.
func (c *Curation) SetCategoricalFilter(field, value string) error {
	c.warnings = nil
	f, ok := c.def.Field(field)
	if !ok || !f.Categorical {
		return fmt.Errorf("%w: %q is not a categorical field of %s", ErrUnknownField, field, c.def.Info.Key)
	}
	if value == "" {
		value = Wildcard
	}
	c.filter.Categorical[field] = value
	return nil
}

// SetNumericRange applies a range filter from raw bound text and returns the
// range actually applied.
//
// An empty bound means the field's full bound on that side. A non-numeric
// bound is ignored the same way, and min > max restores the full range;
// both cases still apply and return an error wrapping ErrInvalidRangeInput
// that is also kept as a warning on the next Result.
func (c *Curation) SetNumericRange(field, minText, maxText string) (NumericRange, error) {
	c.warnings = nil
	f, ok := c.def.Field(field)
	if !ok || !f.Range {
		return NumericRange{}, fmt.Errorf("%w: %q is not a range field of %s", ErrUnknownField, field, c.def.Info.Key)
	}

	full := f.FullRange()
	applied := full
	var problems []string

	if strings.TrimSpace(minText) != "" {
		if v, ok := ParseNumber(minText); ok {
			applied.Min = v
		} else {
			problems = append(problems, fmt.Sprintf("minimum %q is not a number", minText))
		}
	}
	if strings.TrimSpace(maxText) != "" {
		if v, ok := ParseNumber(maxText); ok {
			applied.Max = v
		} else {
			problems = append(problems, fmt.Sprintf("maximum %q is not a number", maxText))
		}
	}
	if applied.Min > applied.Max {
		problems = append(problems, fmt.Sprintf("minimum %g exceeds maximum %g", applied.Min, applied.Max))
		applied = full
	}

	c.filter.Ranges[field] = applied

	if len(problems) > 0 {
		err := fmt.Errorf("%w: %s %s", ErrInvalidRangeInput, f.HeaderLabel(), strings.Join(problems, "; "))
		c.warnings = append(c.warnings, err.Error())
		return applied, err
	}
	return applied, nil
}

// ToggleSort sorts by field ascending, or flips direction if already sorted by it.
func (c *Curation) ToggleSort(field string) error {
	c.warnings = nil
	f, ok := c.def.Field(field)
	if !ok || !f.Sortable {
		return fmt.Errorf("%w: %q is not sortable in %s", ErrUnknownField, field, c.def.Info.Key)
	}
	c.sort = c.sort.Toggle(field)
	return nil
}

// ResetFilters restores the default filter criteria. Sort is kept.
func (c *Curation) ResetFilters() {
	c.warnings = nil
	c.filter = DefaultFilterCriteria(c.def)
}

// Result curates the current snapshot. Without a snapshot the result is
// empty and carries the load error, if any.
func (c *Curation) Result() Result {
	res := Result{
		Table:    c.def.Info.Key,
		Filter:   c.filter.Clone(),
		Filtered: !c.filter.IsDefault(c.def),
		Sort:     c.sort,
		Warnings: c.warnings,
		LoadedAt: c.loadedAt,
		Records:  []Record{},
	}
	if !c.loaded {
		res.Err = c.srcErr
		return res
	}
	res.Records = Curate(c.def, c.snapshot, c.filter, c.sort)
	res.Visible = len(res.Records)
	res.Total = len(c.snapshot)
	return res
}

// Encode renders the curated view as CSV along with its suggested filename.
// An unloaded curation encodes a header-only file unless the load failed.
func (c *Curation) Encode(now time.Time) ([]byte, string, error) {
	res := c.Result()
	if res.Err != nil {
		return nil, "", res.Err
	}
	data, err := Export(res.Records, ExportFields(c.def))
	if err != nil {
		return nil, "", err
	}
	return data, ExportFilename(c.def.Info.Key, now), nil
}

// Export writes the curated view through sink and returns the filename used.
func (c *Curation) Export(sink DownloadSink, now time.Time) (string, error) {
	data, filename, err := c.Encode(now)
	if err != nil {
		return "", err
	}
	return filename, saveExport(sink, data, filename)
}

// Session groups a visitor's curations.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	curations map[string]*Curation
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		curations: make(map[string]*Curation),
	}
}

// With runs fn on the session's curation of def while holding the session
// lock, creating the curation on first use.
func (s *Session) With(def TableDefinition, fn func(c *Curation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.curations[def.Info.Key]
	if !ok {
		cur = NewCuration(def)
		s.curations[def.Info.Key] = cur
	}
	return fn(cur)
}

// SessionStore keeps sessions in memory with a sliding TTL.
type SessionStore struct {
	cache *gocache.Cache
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity; expired entries are swept every cleanupInterval.
func NewSessionStore(ttl, cleanupInterval time.Duration) *SessionStore {
	return &SessionStore{cache: gocache.New(ttl, cleanupInterval)}
}

// Create starts and stores a new session.
func (s *SessionStore) Create() *Session {
	sess := newSession()
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns the session and extends its expiry.
func (s *SessionStore) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	v, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess := v.(*Session)
	s.cache.SetDefault(id, sess)
	return sess, nil
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown
// or expired. The bool reports whether a new session was created.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if sess, err := s.Get(id); err == nil {
		return sess, false
	}
	return s.Create(), true
}

// Count returns the number of stored sessions, including expired ones not
// yet swept.
func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}
