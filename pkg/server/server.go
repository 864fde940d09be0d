package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionSetup prepares a freshly connected session: it builds the
// component tree, registers event listeners, and declares bindings.
type SessionSetup func(*Session)

// Server hosts the live WebSocket endpoint and its supporting HTTP routes.
type Server struct {
	config   *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
	setup    SessionSetup

	sessions   map[string]*Session
	sessionsMu sync.RWMutex

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionSetup sets the callback run for each new session before its
// loops start.
func WithSessionSetup(setup SessionSetup) Option {
	return func(s *Server) {
		s.setup = setup
	}
}

// WithHTTPMiddleware mounts additional middleware on the router. Must be
// applied before any requests are served.
func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.router.Use(mw...)
	}
}

// New creates a Server from config. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config: config.Clone(),
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		router:   chi.NewRouter(),
		sessions: make(map[string]*Session),
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.Recoverer)

	for _, opt := range opts {
		opt(s)
	}

	s.router.Get("/live", s.handleLive)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	return s
}

// Router returns the server's router so callers can mount extra routes.
func (s *Server) Router() chi.Router {
	return s.router
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.router,
	}

	s.logger.Info("server listening", "address", s.config.Address)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and closes all sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")

	s.sessionsMu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionsMu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleLive upgrades the connection and runs a session on it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxSessions > 0 && s.SessionCount() >= s.config.MaxSessions {
		http.Error(w, "session limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, s.config.Session, s.logger)
	sess.onClose = s.removeSession

	s.sessionsMu.Lock()
	s.sessions[sess.ID()] = sess
	s.sessionsMu.Unlock()

	getMetrics().sessionsTotal.Inc()
	getMetrics().activeSessions.Inc()
	s.logger.Info("session connected", "session_id", sess.ID(), "remote", r.RemoteAddr)

	if s.setup != nil {
		s.setup(sess)
	}
	sess.Start()
}

func (s *Server) removeSession(sess *Session) {
	s.sessionsMu.Lock()
	_, ok := s.sessions[sess.ID()]
	delete(s.sessions, sess.ID())
	s.sessionsMu.Unlock()

	if ok {
		getMetrics().activeSessions.Dec()
		s.logger.Info("session closed", "session_id", sess.ID())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
