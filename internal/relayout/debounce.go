package relayout

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the trailing delay applied to resize bursts.
const DefaultDelay = 150 * time.Millisecond

// Option configures a Debouncer or Trigger.
type Option func(*options)

type options struct {
	clock  Clock
	logger *zap.Logger
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{clock: RealClock(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Debouncer runs only the most recently scheduled callback, delay after the last Schedule.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	clock Clock
	timer Timer
	seq   uint64
}

// NewDebouncer returns a debouncer with the given trailing delay.
func NewDebouncer(delay time.Duration, opts ...Option) *Debouncer {
	o := buildOptions(opts)
	return &Debouncer{delay: delay, clock: o.clock}
}

// Schedule replaces any pending callback with f.
func (d *Debouncer) Schedule(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		f()
	})
}

// Cancel drops the pending callback. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.seq++
	return true
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
