package core

// export_limiter.go bounds the number of CSV exports running at once.
//
// Each export holds a full snapshot plus its encoded file in memory, so a
// burst of downloads or an overlapping scheduled run is queued on a
// semaphore. Callers that cannot get a slot within the wait time fail with
// ErrExportBusy and may retry.

import (
	"context"
	"time"
)

// DefaultMaxConcurrentExports is the slot count when none is configured.
const DefaultMaxConcurrentExports = 4

// DefaultExportWait is how long Acquire waits for a free slot.
const DefaultExportWait = 10 * time.Second

// ExportLimiter is a counting semaphore for exports. A slot is counted as
// active from the moment it is taken.
type ExportLimiter struct {
	slots chan struct{}
	wait  time.Duration
}

// NewExportLimiter allows at most max concurrent exports. Non-positive
// arguments fall back to the defaults.
func NewExportLimiter(max int, wait time.Duration) *ExportLimiter {
	if max <= 0 {
		max = DefaultMaxConcurrentExports
	}
	if wait <= 0 {
		wait = DefaultExportWait
	}
	return &ExportLimiter{
		slots: make(chan struct{}, max),
		wait:  wait,
	}
}

// Acquire takes a slot, waiting up to the limiter's wait time. The caller
// must Release a slot it acquired.
func (l *ExportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrExportBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *ExportLimiter) Release() {
	<-l.slots
}

// Active returns the number of exports in progress.
func (l *ExportLimiter) Active() int {
	return len(l.slots)
}

// Capacity returns the maximum number of concurrent exports.
func (l *ExportLimiter) Capacity() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no export is running or ctx is done. Used on
// shutdown so a scheduled export is not cut off halfway through a write.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
