// Package api serves the careslot HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/careslot/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux          *http.ServeMux
	server       *http.Server
	logger       *slog.Logger
	auth         *Authenticator
	reservations *ReservationHandler
	blocks       *BlockHandler
	health       *observability.HealthRegistry
	metrics      observability.Metrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Deps are the handlers and services the server routes to.
type Deps struct {
	Auth         *Authenticator
	Reservations *ReservationHandler
	Blocks       *BlockHandler
	Health       *observability.HealthRegistry
	Metrics      observability.Metrics
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Health == nil {
		deps.Health = observability.NewHealthRegistry()
	}
	if deps.Auth == nil {
		deps.Auth = &Authenticator{tokens: map[string]Principal{}}
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		auth:         deps.Auth,
		reservations: deps.Reservations,
		blocks:       deps.Blocks,
		health:       deps.Health,
		metrics:      deps.Metrics,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.Handle("GET /health", s.health.Handler())

	if h := s.reservations; h != nil {
		s.mux.HandleFunc("POST /slot-reservations", s.auth.Require(h.Reserve))
		s.mux.HandleFunc("GET /slot-reservations/user/current", s.auth.Require(h.ListCurrent))
		s.mux.HandleFunc("DELETE /slot-reservations/user/current", s.auth.Require(h.ReleaseAll))
		s.mux.HandleFunc("DELETE /slot-reservations/{id}", s.auth.Require(h.Release))
	}

	if h := s.blocks; h != nil {
		s.mux.HandleFunc("GET /scheduleblocks/check-conflict", s.auth.Require(h.CheckConflict))
		s.mux.HandleFunc("GET /scheduleblocks", s.auth.Require(h.List))
		s.mux.HandleFunc("GET /scheduleblocks/{id}", s.auth.Require(h.Get))
		s.mux.HandleFunc("POST /scheduleblocks", s.auth.Require(h.Request, RoleProfessional, RoleAdmin, RoleAssistant))
		s.mux.HandleFunc("PATCH /scheduleblocks/{id}", s.auth.Require(h.Update, RoleProfessional, RoleAdmin, RoleAssistant))
		s.mux.HandleFunc("PATCH /scheduleblocks/{id}/approve", s.auth.Require(h.Approve, RoleAdmin, RoleAssistant))
		s.mux.HandleFunc("PATCH /scheduleblocks/{id}/reject", s.auth.Require(h.Reject, RoleAdmin, RoleAssistant))
		s.mux.HandleFunc("DELETE /scheduleblocks/{id}", s.auth.Require(h.Delete, RoleProfessional, RoleAdmin, RoleAssistant))
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestContext attaches request and correlation ids, then logs and
// counts the completed request.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), r.Header.Get("X-Request-ID"))
		ctx = observability.WithCorrelationID(ctx, r.Header.Get("X-Correlation-ID"))
		w.Header().Set("X-Request-ID", observability.RequestIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		r = r.WithContext(ctx)
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		tags := []observability.Tag{
			observability.T("route", route),
			observability.T("status", strconv.Itoa(rec.status)),
		}
		s.metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
		s.metrics.Timing(observability.MetricHTTPDuration, elapsed, tags...)

		s.logger.InfoContext(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			observability.StatusKey, rec.status,
			observability.DurationKey, elapsed.Milliseconds(),
			observability.RequestIDKey, observability.RequestIDFromContext(ctx),
		)
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting careslot API server",
		"addr", s.server.Addr,
		"tokens", s.auth.Len(),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down careslot API server")
	return s.server.Shutdown(ctx)
}
