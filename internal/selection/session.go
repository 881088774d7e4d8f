package selection

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/narraview/internal/relayout"
	"github.com/hyperjump/narraview/internal/render"
)

// ErrUnknownSession is returned for a session id that was never created or is closed.
var ErrUnknownSession = errors.New("unknown session")

// SessionConfig describes the page a session mounts.
type SessionConfig struct {
	DatasetID string
	Mode      render.Mode
	Attribute string
	Layout    string
	Viewport  render.Viewport
}

// Session is one mounted page: its coordinator, its debounced relayout trigger and the
// transient set of expanded topic groups.
type Session struct {
	ID          string
	Config      SessionConfig
	Coordinator *Coordinator
	Trigger     *relayout.Trigger[render.Viewport]
	CreatedAt   time.Time

	mu       sync.Mutex
	expanded map[string]bool
	cleanups []func()
	closed   bool
}

// ToggleGroup flips a topic group's expansion and returns the new state.
func (s *Session) ToggleGroup(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded[key] = !s.expanded[key]
	if !s.expanded[key] {
		delete(s.expanded, key)
		return false
	}
	return true
}

// Expanded returns a copy of the expanded group keys.
func (s *Session) Expanded() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.expanded))
	for k, v := range s.expanded {
		out[k] = v
	}
	return out
}

// Viewport returns the last settled viewport.
func (s *Session) Viewport() render.Viewport {
	vp, _ := s.Trigger.Current()
	return vp
}

// close runs every cleanup hook once and cancels the pending relayout.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hooks := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()
	s.Trigger.Stop()
	for _, h := range hooks {
		h()
	}
}

// Registry tracks live sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	delay    time.Duration
	clock    relayout.Clock
	logger   *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithClock sets the clock for session relayout triggers.
func WithClock(c relayout.Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// NewRegistry returns an empty registry whose sessions debounce resizes by delay.
func NewRegistry(delay time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		delay:    delay,
		clock:    relayout.RealClock(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create mounts a new session and returns it.
func (r *Registry) Create(cfg SessionConfig) *Session {
	id := uuid.New().String()
	logger := r.logger.With(zap.String("session_id", id))
	s := &Session{
		ID:          id,
		Config:      cfg,
		Coordinator: NewCoordinator(WithLogger(logger)),
		CreatedAt:   time.Now(),
		expanded:    make(map[string]bool),
	}
	s.Trigger = relayout.NewTrigger(r.delay, cfg.Viewport, func(gen uint64, vp render.Viewport) {
		logger.Debug("viewport settled", zap.Uint64("generation", gen),
			zap.Float64("width", vp.Width), zap.Float64("height", vp.Height))
	}, relayout.WithClock(r.clock), relayout.WithLogger(logger))
	s.cleanups = append(s.cleanups, s.Coordinator.Mount(cfg.Mode))

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	logger.Info("session created", zap.String("dataset_id", cfg.DatasetID), zap.String("mode", string(cfg.Mode)))
	return s
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Close unmounts a session, running its cleanup hooks.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	s.close()
	r.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// CloseAll unmounts every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

// IDs returns the live session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
