package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/metrics"
)

// DefaultFetchTimeout bounds one snapshot fetch when ServiceConfig leaves it unset.
const DefaultFetchTimeout = 10 * time.Second

// ServiceConfig tunes a Service.
type ServiceConfig struct {
	FetchTimeout time.Duration
	Metrics      *metrics.Metrics
	Now          func() time.Time

	// MaxConcurrentExports and ExportWait size the export limiter; zero
	// values use the limiter defaults.
	MaxConcurrentExports int
	ExportWait           time.Duration
}

// Service is the entry point for curation, events and check-in.
type Service struct {
	store        Store
	sessions     *SessionStore
	metrics      *metrics.Metrics
	exports      *ExportLimiter
	fetchTimeout time.Duration
	now          func() time.Time
}

// NewService creates a Service over store. sessions may be nil for callers
// that only run stateless exports (CLI, scheduler).
func NewService(store Store, sessions *SessionStore, cfg ServiceConfig) *Service {
	s := &Service{
		store:        store,
		sessions:     sessions,
		metrics:      cfg.Metrics,
		exports:      NewExportLimiter(cfg.MaxConcurrentExports, cfg.ExportWait),
		fetchTimeout: cfg.FetchTimeout,
		now:          cfg.Now,
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if sessions != nil {
		s.metrics.TrackSessions(sessions.Count)
	}
	return s
}

// Sessions returns the session store.
func (s *Service) Sessions() *SessionStore {
	return s.sessions
}

// Store returns the backing store.
func (s *Service) Store() Store {
	return s.store
}

// DrainExports waits for running exports to finish or ctx to end.
func (s *Service) DrainExports(ctx context.Context) error {
	return s.exports.WaitForDrain(ctx)
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// TableSummary describes a registered table for listings.
type TableSummary struct {
	Key         string      `json:"key"`
	Group       string      `json:"group"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Identity    string      `json:"identity"`
	DefaultSort string      `json:"default_sort"`
	Fields      []FieldSpec `json:"fields"`
}

// ListTables returns all registered tables.
func (s *Service) ListTables() []TableSummary {
	defs := All()
	out := make([]TableSummary, len(defs))
	for i, def := range defs {
		out[i] = TableSummary{
			Key:         def.Info.Key,
			Group:       def.Info.Group,
			Label:       def.Info.Label,
			Description: def.Info.Description,
			Identity:    def.Info.IdentityField,
			DefaultSort: def.Info.DefaultSort,
			Fields:      def.FieldSpecs,
		}
	}
	return out
}

// TableStats is a dashboard card's data.
type TableStats struct {
	Info    TableInfo
	Records int
	Err     error
}

// Stats fetches a snapshot of every table to count records. A failing
// table reports its error instead of failing the whole dashboard.
func (s *Service) Stats(ctx context.Context) []TableStats {
	defs := All()
	out := make([]TableStats, len(defs))
	for i, def := range defs {
		out[i].Info = def.Info
		records, err := s.source(def).FetchAll(ctx)
		if err != nil {
			out[i].Err = fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, def.Info.Key, err)
			continue
		}
		out[i].Records = len(records)
	}
	return out
}

// source wraps def's record source with the fetch timeout and metrics.
func (s *Service) source(def TableDefinition) RecordSource {
	return RecordSourceFunc(func(ctx context.Context) ([]Record, error) {
		ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()

		records, err := def.Source(s.store, s.now).FetchAll(ctx)
		if err != nil {
			s.metrics.FetchFailed(def.Info.Key)
			return nil, err
		}
		s.metrics.SnapshotLoaded(def.Info.Key, len(records))
		return records, nil
	})
}

// View returns the session's curated table, fetching a snapshot when none
// is held or when refresh is set.
func (s *Service) View(ctx context.Context, sessionID, table string, refresh bool) (Result, error) {
	return s.withCuration(ctx, sessionID, table, refresh, func(*Curation) error { return nil })
}

// SetSearch applies a free-text search.
func (s *Service) SetSearch(ctx context.Context, sessionID, table, text string) (Result, error) {
	return s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		c.SetSearchText(text)
		return nil
	})
}

// SetCategory applies a categorical filter.
func (s *Service) SetCategory(ctx context.Context, sessionID, table, field, value string) (Result, error) {
	return s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		return c.SetCategoricalFilter(field, value)
	})
}

// SetRange applies a numeric range filter. Malformed bounds are corrected
// and reported in Result.Warnings rather than as an error.
func (s *Service) SetRange(ctx context.Context, sessionID, table, field, minText, maxText string) (Result, error) {
	return s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		_, err := c.SetNumericRange(field, minText, maxText)
		if errors.Is(err, ErrInvalidRangeInput) {
			logging.FromContext(ctx).Warn("range input corrected", "table", table, "field", field, "error", err)
			return nil
		}
		return err
	})
}

// ToggleSort toggles the sort on field.
func (s *Service) ToggleSort(ctx context.Context, sessionID, table, field string) (Result, error) {
	return s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		return c.ToggleSort(field)
	})
}

// ResetFilters restores default filters.
func (s *Service) ResetFilters(ctx context.Context, sessionID, table string) (Result, error) {
	return s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		c.ResetFilters()
		return nil
	})
}

// Export writes the session's curated view through sink.
func (s *Service) Export(ctx context.Context, sessionID, table string, sink DownloadSink) (string, error) {
	if err := s.exports.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.exports.Release()

	// Encode under the session lock, write after releasing it.
	var (
		data     []byte
		filename string
	)
	_, err := s.withCuration(ctx, sessionID, table, false, func(c *Curation) error {
		var err error
		data, filename, err = c.Encode(s.now())
		return err
	})
	if err != nil {
		return "", err
	}
	if err := saveExport(sink, data, filename); err != nil {
		return "", err
	}
	s.metrics.Exported(table, metrics.TriggerHTTP)
	return filename, nil
}

// ExportSnapshot fetches a fresh snapshot and exports it with default
// criteria. Used by the scheduler and the CLI.
func (s *Service) ExportSnapshot(ctx context.Context, table string, sink DownloadSink, trigger string) (string, error) {
	def, err := Lookup(table)
	if err != nil {
		return "", err
	}

	if err := s.exports.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.exports.Release()

	cur := NewCuration(def)
	if err := cur.Load(ctx, s.source(def)); err != nil {
		return "", err
	}

	filename, err := cur.Export(sink, s.now())
	if err != nil {
		return "", err
	}
	s.metrics.Exported(table, trigger)
	return filename, nil
}

// withCuration resolves the table and session, loads a snapshot if needed,
// applies fn under the session lock and returns the recomputed result.
//
// A failed fetch is not an error: the result comes back empty with Err set
// so the caller can surface it. Errors from fn are returned as-is.
func (s *Service) withCuration(ctx context.Context, sessionID, table string, refresh bool, fn func(c *Curation) error) (Result, error) {
	def, err := Lookup(table)
	if err != nil {
		return Result{}, err
	}
	if s.sessions == nil {
		return Result{}, ErrSessionNotFound
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return Result{}, err
	}

	logger := logging.WithFields(ctx, "table", table, "session", sess.ID)

	var res Result
	err = sess.With(def, func(c *Curation) error {
		if refresh || !c.Loaded() {
			if err := c.Load(ctx, s.source(def)); err != nil {
				logger.Error("snapshot fetch failed", "error", err)
			}
		}

		if err := fn(c); err != nil {
			return err
		}

		start := time.Now()
		res = c.Result()
		outcome := metrics.OutcomeOK
		if res.Err != nil {
			outcome = metrics.OutcomeUnavailable
		}
		s.metrics.ObserveCuration(table, outcome, time.Since(start))
		return nil
	})
	if err != nil {
		s.metrics.ObserveCuration(table, metrics.OutcomeRejected, 0)
		return Result{}, err
	}

	logger.Debug("curated", "visible", res.Visible, "total", res.Total, "sort", res.Sort.Key, "dir", res.Sort.Direction)
	return res, nil
}
