package app

import (
	"context"
	"time"
)

// DefaultTickInterval is the reference interval between progress reports
const DefaultTickInterval = 500 * time.Millisecond

// ProgressUpdate is a single progress report for the active session
type ProgressUpdate struct {
	SessionID  string
	Percent    float64
	Message    string
	Speed      string
	ETASeconds int
}

// ProgressReporter periodically samples the active session and reports its progress
type ProgressReporter struct {
	interval time.Duration
}

// NewProgressReporter creates a reporter ticking every interval
func NewProgressReporter(interval time.Duration) *ProgressReporter {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &ProgressReporter{interval: interval}
}

// Interval returns the tick interval
func (r *ProgressReporter) Interval() time.Duration {
	return r.interval
}

// Run blocks until ctx is done or sample reports that the session is gone or
// no longer running. Each tick passes the sampled update to callback. Ticks
// missed while a callback runs are dropped, not replayed.
func (r *ProgressReporter) Run(ctx context.Context, sample func() (ProgressUpdate, bool), callback func(ProgressUpdate)) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			update, ok := sample()
			if !ok {
				return
			}
			callback(update)
		}
	}
}
