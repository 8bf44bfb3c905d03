// Package debugsrv implements the per-process debug HTTP endpoint
// (`/health`, `/metrics`) that the controller and car binaries can
// optionally bind, grounded on the teacher's internal/http server's health/metrics
// routes but trimmed to just those two: there is no JSON elevator API
// here, since every process's domain surface is the wire/IPC protocols
// instead.
package debugsrv

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fathomworks/multicar-elevator/internal/health"
)

// Server is a minimal HTTP server exposing health and Prometheus metrics
// for one process.
type Server struct {
	addr    string
	logger  *slog.Logger
	health  *health.Service
	mux     *http.ServeMux
	httpSrv *http.Server
}

// New builds a debug server bound to addr (not yet listening).
func New(addr string, logger *slog.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger,
		health: health.NewService(10 * time.Second),
	}
	s.health.Register(health.NewLivenessChecker())
	s.health.Register(health.NewSystemResourceChecker(85.0, 500))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	s.mux = mux
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}

	return s
}

// Handle mounts an extra route on the debug server, e.g. the dispatcher's
// /ws/status live view.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// RegisterChecker adds an extra domain-specific health check (e.g. the
// dispatcher's car-table reachability, or a car's safety heartbeat
// freshness) to the service.
func (s *Server) RegisterChecker(c health.Checker) {
	s.health.Register(c)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, results := s.health.OverallStatus(r.Context())

	w.Header().Set("Content-Type", "application/json")
	switch status {
	case health.StatusUnhealthy:
		w.WriteHeader(http.StatusServiceUnavailable)
	case health.StatusDegraded:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": results,
	})
}

// ListenAndServe runs the debug server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("debug server listening", slog.String("addr", s.addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
