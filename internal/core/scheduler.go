package core

// scheduler.go runs periodic snapshot exports.
//
// Each run fetches a fresh snapshot of every configured table and writes it
// with default criteria through the sink, typically a FileSink. A failing
// table is logged and skipped; it never stops the scheduler.
//
// Runs use the scheduler's own context. Stop waits for a run in progress
// and cancels it only when the stop deadline passes.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/JonMunkholm/rollcall/internal/metrics"
)

// ExportScheduler exports tables on a cron schedule.
type ExportScheduler struct {
	service *Service
	sink    DownloadSink
	tables  []string
	cron    *cron.Cron

	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewExportScheduler creates a scheduler exporting tables through sink.
func NewExportScheduler(service *Service, sink DownloadSink, tables []string) *ExportScheduler {
	runCtx, cancel := context.WithCancel(context.Background())
	return &ExportScheduler{
		service:    service,
		sink:       sink,
		tables:     tables,
		cron:       cron.New(),
		runCtx:     runCtx,
		cancelRuns: cancel,
	}
}

// Start validates the tables, schedules runs for spec (standard 5-field cron
// syntax or descriptors like "@daily") and returns. Call Stop to end it.
func (s *ExportScheduler) Start(spec string) error {
	for _, key := range s.tables {
		if _, err := Lookup(key); err != nil {
			return fmt.Errorf("scheduled export: %w", err)
		}
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	s.start(schedule)

	slog.Info("export scheduler started", "schedule", spec, "tables", s.tables)
	return nil
}

func (s *ExportScheduler) start(schedule cron.Schedule) {
	s.cron.Schedule(schedule, cron.FuncJob(s.run))
	s.cron.Start()
}

func (s *ExportScheduler) run() {
	s.RunOnce(s.runCtx)
}

// Stop prevents further runs and waits for a run in progress to finish.
// If ctx ends first the run is cancelled and ctx's error returned.
func (s *ExportScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	defer s.cancelRuns()

	select {
	case <-done:
		slog.Info("export scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancelRuns()
		<-done
		slog.Warn("export scheduler stopped before its run finished", "error", ctx.Err())
		return ctx.Err()
	}
}

// RunOnce exports every configured table and returns how many succeeded.
func (s *ExportScheduler) RunOnce(ctx context.Context) int {
	start := time.Now()
	exported := 0

	for _, key := range s.tables {
		if ctx.Err() != nil {
			break
		}
		filename, err := s.service.ExportSnapshot(ctx, key, s.sink, metrics.TriggerScheduled)
		if err != nil {
			slog.Error("scheduled export failed", "table", key, "error", err)
			continue
		}
		exported++
		slog.Info("scheduled export written", "table", key, "file", filename)
	}

	slog.Info("export run completed",
		"exported", exported,
		"tables", len(s.tables),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return exported
}
