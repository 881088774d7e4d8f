package relayout

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Trigger debounces requests carrying a value (typically a measured viewport) and hands the
// latest one to a relayout function. Newer requests supersede older ones; there is no
// partial cancellation because each relayout depends only on the value it receives.
type Trigger[T any] struct {
	mu         sync.Mutex
	debouncer  *Debouncer
	pending    T
	hasPending bool
	current    T
	generation uint64
	relayout   func(generation uint64, v T)
	logger     *zap.Logger
}

// NewTrigger returns a trigger starting at initial. relayout may be nil.
func NewTrigger[T any](delay time.Duration, initial T, relayout func(generation uint64, v T), opts ...Option) *Trigger[T] {
	o := buildOptions(opts)
	return &Trigger[T]{
		debouncer: NewDebouncer(delay, opts...),
		current:   initial,
		relayout:  relayout,
		logger:    o.logger,
	}
}

// Request records v and schedules a relayout after the trailing delay.
func (t *Trigger[T]) Request(v T) {
	t.mu.Lock()
	t.pending, t.hasPending = v, true
	t.mu.Unlock()
	t.debouncer.Schedule(t.fire)
}

// Flush applies a pending request immediately.
func (t *Trigger[T]) Flush() {
	if t.debouncer.Cancel() {
		t.fire()
	}
}

// Stop drops any pending request.
func (t *Trigger[T]) Stop() {
	t.debouncer.Cancel()
	t.mu.Lock()
	t.hasPending = false
	t.mu.Unlock()
}

// Current returns the last applied value and its generation. Generation 0 is the initial value.
func (t *Trigger[T]) Current() (T, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.generation
}

func (t *Trigger[T]) fire() {
	t.mu.Lock()
	if !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	t.hasPending = false
	t.current = v
	t.generation++
	gen := t.generation
	fn := t.relayout
	t.mu.Unlock()

	t.logger.Debug("relayout", zap.Uint64("generation", gen))
	if fn != nil {
		fn(gen, v)
	}
}
