package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExportScheduler_RunOnce(t *testing.T) {
	f := newServiceFixture(t)
	dir := t.TempDir()

	s := NewExportScheduler(f.svc, FileSink{Dir: dir}, []string{"people", "missing"})
	if got := s.RunOnce(context.Background()); got != 1 {
		t.Errorf("RunOnce() = %d, want 1 (unknown table skipped)", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "people_2025-06-15.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "ID,Name,Email") {
		t.Errorf("export = %q", data)
	}
}

func TestExportScheduler_RunOnceStopsOnCancel(t *testing.T) {
	f := newServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	s := NewExportScheduler(f.svc, SinkFunc(func([]byte, string) error { calls++; return nil }), []string{"people"})
	if got := s.RunOnce(ctx); got != 0 || calls != 0 {
		t.Errorf("RunOnce(cancelled) = %d, sink calls %d", got, calls)
	}
}

func TestExportScheduler_Start(t *testing.T) {
	f := newServiceFixture(t)
	sink := SinkFunc(func([]byte, string) error { return nil })

	if err := NewExportScheduler(f.svc, sink, []string{"missing"}).Start("@daily"); err == nil {
		t.Error("Start() with unknown table should fail")
	}
	if err := NewExportScheduler(f.svc, sink, []string{"people"}).Start("not a schedule"); err == nil {
		t.Error("Start() with invalid schedule should fail")
	}

	s := NewExportScheduler(f.svc, sink, []string{"people"})
	if err := s.Start("*/5 * * * *"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

// onceAfter fires a single time, delay after the scheduler starts.
type onceAfter struct {
	delay time.Duration
	fired bool
}

func (o *onceAfter) Next(t time.Time) time.Time {
	if o.fired {
		return time.Time{}
	}
	o.fired = true
	return t.Add(o.delay)
}

// blockingTable registers a table whose fetch signals started and then waits
// for release or cancellation.
func blockingTable(t *testing.T, started chan<- struct{}, release <-chan struct{}) {
	t.Helper()
	def := peopleDef()
	def.Info.Key = "slow"
	def.Fetch = func(ctx context.Context, _ Store, _ time.Time) ([]Record, error) {
		started <- struct{}{}
		select {
		case <-release:
			return []Record{{"name": "Ada"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	Register(def)
}

func TestExportScheduler_StopWaitsForRun(t *testing.T) {
	f := newServiceFixture(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	blockingTable(t, started, release)

	var saved atomic.Int32
	sink := SinkFunc(func([]byte, string) error { saved.Add(1); return nil })
	s := NewExportScheduler(f.svc, sink, []string{"slow"})
	s.start(&onceAfter{delay: 10 * time.Millisecond})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled run never started")
	}

	stopped := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		stopped <- s.Stop(ctx)
	}()

	select {
	case err := <-stopped:
		t.Fatalf("Stop() returned %v before the run finished", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-stopped; err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if got := saved.Load(); got != 1 {
		t.Errorf("exports saved = %d, want 1", got)
	}
}

func TestExportScheduler_StopDeadlineCancelsRun(t *testing.T) {
	f := newServiceFixture(t)
	started := make(chan struct{}, 1)
	blockingTable(t, started, make(chan struct{}))

	var saved atomic.Int32
	sink := SinkFunc(func([]byte, string) error { saved.Add(1); return nil })
	s := NewExportScheduler(f.svc, sink, []string{"slow"})
	s.start(&onceAfter{delay: 10 * time.Millisecond})

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled run never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop() error = %v, want deadline exceeded", err)
	}
	if got := saved.Load(); got != 0 {
		t.Errorf("exports saved = %d, want 0", got)
	}
}
