package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/acrodrig/dbx/dialect"
)

// Stats holds execution counters for an instrumented driver.
type Stats struct {
	// Queries is the number of row-returning statements executed.
	Queries atomic.Int64
	// Execs is the number of non-returning statements executed.
	Execs atomic.Int64
	// Duration is the total time spent executing, in nanoseconds.
	Duration atomic.Int64
	// Slow is the count of statements exceeding the slow threshold.
	Slow atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Queries:  s.Queries.Load(),
		Execs:    s.Execs.Load(),
		Duration: time.Duration(s.Duration.Load()),
		Slow:     s.Slow.Load(),
		Errors:   s.Errors.Load(),
	}
}

// String returns a human-readable summary of the snapshot.
func (s Snapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Slow, s.Errors)
}

// InstrumentedDriver wraps a driver with execution counters and slow-query
// logging through slog.
type InstrumentedDriver struct {
	dialect.Driver
	stats     *Stats
	threshold time.Duration
	log       *slog.Logger
}

// InstrumentOption configures an InstrumentedDriver.
type InstrumentOption func(*InstrumentedDriver)

// WithSlowThreshold sets the duration beyond which a statement is counted
// and logged as slow. Default is 100ms.
func WithSlowThreshold(d time.Duration) InstrumentOption {
	return func(i *InstrumentedDriver) { i.threshold = d }
}

// WithLogger sets the logger used for slow-query reports.
func WithLogger(log *slog.Logger) InstrumentOption {
	return func(i *InstrumentedDriver) { i.log = log }
}

// Instrument wraps the driver with counters and slow-statement logging.
func Instrument(drv dialect.Driver, opts ...InstrumentOption) *InstrumentedDriver {
	i := &InstrumentedDriver{
		Driver:    drv,
		stats:     &Stats{},
		threshold: 100 * time.Millisecond,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Stats returns the driver's counters.
func (i *InstrumentedDriver) Stats() *Stats {
	return i.stats
}

// Query executes a query and records statistics.
func (i *InstrumentedDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := i.Driver.Query(ctx, query, args, v)
	i.record(ctx, query, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (i *InstrumentedDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := i.Driver.Exec(ctx, query, args, v)
	i.record(ctx, query, start, err, false)
	return err
}

func (i *InstrumentedDriver) record(ctx context.Context, query string, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		i.stats.Queries.Add(1)
	} else {
		i.stats.Execs.Add(1)
	}
	i.stats.Duration.Add(int64(duration))
	if err != nil {
		i.stats.Errors.Add(1)
	}
	if duration > i.threshold {
		i.stats.Slow.Add(1)
		i.log.LogAttrs(ctx, slog.LevelWarn, "slow statement",
			slog.Duration("duration", duration), slog.String("query", query))
	}
}

var _ dialect.Driver = (*InstrumentedDriver)(nil)
