// Package health serves the liveness, readiness and metrics endpoints of the
// scheduled prediction service.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/logger"
	"github.com/yourusername/gridline/internal/metrics"
)

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// CycleReporter exposes the state of the weekly prediction cycle.
type CycleReporter interface {
	NextRun() time.Time
	LastRun() (at time.Time, err error)
}

// HealthResponse represents the JSON response for /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
	LastRun   string `json:"last_run,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// ReadyResponse represents the JSON response for /ready.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Port        int
	MetricsPath string
	Logger      *logrus.Logger
	DB          DatabasePinger
	Cycle       CycleReporter
}

// Server is a lightweight HTTP server for health check endpoints.
type Server struct {
	cfg    Config
	server *http.Server
	log    *logrus.Entry
	mu     sync.RWMutex
	ready  bool
}

// NewServer creates a new health check server.
func NewServer(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Server{
		cfg: cfg,
		log: logger.OrDefault(cfg.Logger).WithField("component", "health"),
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	return mux
}

// Start serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.log.WithField("port", s.cfg.Port).Info("Health check server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Health check server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.log.WithError(err).Warn("Health check server shutdown failed")
		}
	}()
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.log.Info("Health check server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
	}
	if s.cfg.Cycle != nil {
		if next := s.cfg.Cycle.NextRun(); !next.IsZero() {
			response.NextRun = next.UTC().Format(time.RFC3339)
		}
		if at, err := s.cfg.Cycle.LastRun(); !at.IsZero() {
			response.LastRun = at.UTC().Format(time.RFC3339)
			if err != nil {
				response.LastError = err.Error()
			}
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// handleReady checks the manual ready flag and database connectivity.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	healthy := true

	if s.IsReady() {
		checks["service"] = "ok"
	} else {
		healthy = false
		checks["service"] = "not_ready"
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.cfg.DB.Ping(ctx); err != nil {
			healthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	response := ReadyResponse{
		Status:   "ok",
		Service:  s.cfg.ServiceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
