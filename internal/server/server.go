// Package server provides the HTTP API for narraview.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/narraview/internal/catalog"
	"github.com/hyperjump/narraview/internal/config"
	"github.com/hyperjump/narraview/internal/search"
	"github.com/hyperjump/narraview/internal/selection"
	"github.com/hyperjump/narraview/internal/views"
	"go.uber.org/zap"
)

// WatchService manages the watched data directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the narraview API.
type Server struct {
	store    catalog.Store
	index    search.EventIndex
	views    *views.Builder
	sessions *selection.Registry
	logger   *zap.Logger
	server   *http.Server

	watch      WatchService
	configPath string
	config     *config.Config
	configMu   sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are saved back to it.
func WithWatch(ws WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = ws
		s.configPath = configPath
	}
}

// WithSessions replaces the default session registry.
func WithSessions(r *selection.Registry) Option {
	return func(s *Server) { s.sessions = r }
}

// NewServer creates a server. index may be nil, which disables event search.
func NewServer(store catalog.Store, index search.EventIndex, cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	s := &Server{
		store:  store,
		index:  index,
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.views = views.NewBuilder(cfg, s.logger)
	if s.sessions == nil {
		s.sessions = selection.NewRegistry(cfg.Relayout.Debounce(), selection.WithRegistryLogger(s.logger))
	}
	return s
}

// Router returns the API handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{headerState},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Get("/datasets", s.handleListDatasets)
		r.Route("/datasets/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Get("/attributes", s.handleAttributes)
			r.Get("/mentions", s.handleMentions)
			r.Get("/topics", s.handleTopics)
			r.Get("/render/{mode}", s.handleRender)
			r.Get("/layout/{mode}", s.handleLayout)
			r.Get("/search", s.handleSearch)
			r.Get("/export.xlsx", s.handleExport)
		})

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Post("/hover", s.handleHover)
			r.Post("/move", s.handleMove)
			r.Post("/leave", s.handleLeave)
			r.Post("/hover-column", s.handleHoverColumn)
			r.Post("/select", s.handleSelect)
			r.Post("/resize", s.handleResize)
			r.Get("/render", s.handleSessionRender)
			r.Post("/groups/{key}/toggle", s.handleToggleGroup)
		})

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop closes every session and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.sessions.CloseAll()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
