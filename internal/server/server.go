// Package server hosts one connector over HTTP so the extract can be queried
// without a database host. Requests are serialized onto the connector, which
// is not safe for concurrent use.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"samfdw/internal/connector"
	"samfdw/internal/logging"
)

// Factory builds a fresh connector. It is called once by New and again on
// every refresh.
type Factory func() (*connector.Connector, error)

// Options tune the host.
type Options struct {
	// Refresh is a standard five-field cron spec. Empty disables refresh.
	Refresh string
	// RateLimit is requests per second across all clients; 0 disables it.
	RateLimit float64
	Burst     int
	// Watch is a local extract path; changes to it trigger a refresh.
	Watch  string
	Logger *slog.Logger
}

// Server is the HTTP host.
type Server struct {
	mu      sync.Mutex
	conn    *connector.Connector
	factory Factory

	router  *chi.Mux
	server  *http.Server
	cron    *cron.Cron
	watcher *fsnotify.Watcher
	log     *slog.Logger
}

// New builds the initial connector and the router. The refresh schedule is
// started by Start; a file watch starts immediately.
func New(factory Factory, opts Options) (*Server, error) {
	conn, err := factory()
	if err != nil {
		return nil, fmt.Errorf("server: build connector: %w", err)
	}
	s := &Server{
		conn:    conn,
		factory: factory,
		router:  chi.NewRouter(),
		log:     opts.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.Refresh != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(opts.Refresh, s.refreshJob); err != nil {
			return nil, fmt.Errorf("server: refresh %q: %w", opts.Refresh, err)
		}
	}
	if opts.Watch != "" {
		if err := s.startWatch(opts.Watch); err != nil {
			return nil, err
		}
	}
	s.setupMiddleware(opts)
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.router.Use(limit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/headers", s.handleHeaders)
	s.router.Route("/rows", func(r chi.Router) {
		r.Get("/", s.handleRows)
		r.Post("/", s.handleModify)
		r.Put("/", s.handleModify)
		r.Patch("/", s.handleModify)
		r.Delete("/", s.handleModify)
	})
	s.router.Post("/rescan", s.handleRescan)
	s.router.Post("/refresh", s.handleRefresh)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux { return s.router }

// Start starts the refresh schedule and serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if s.cron != nil {
		s.cron.Start()
	}
	s.log.Info("server: listening", "addr", addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the schedule and the file watch, then drains in-flight
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Refresh replaces the connector with a new one, so the next scan fetches
// the extract again.
func (s *Server) Refresh() error {
	conn, err := s.factory()
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()
	s.log.Info("server: connector refreshed",
		"old_session", old.Session().ID(), "new_session", conn.Session().ID())
	return nil
}

func (s *Server) refreshJob() {
	if err := s.Refresh(); err != nil {
		s.log.Error("server: scheduled refresh failed", "err", err)
	}
}

// withConn runs fn holding the connector lock.
func (s *Server) withConn(fn func(*connector.Connector) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.conn)
}

func (s *Server) logger(r *http.Request) *slog.Logger {
	return logging.Enrich(r.Context(), s.log)
}
