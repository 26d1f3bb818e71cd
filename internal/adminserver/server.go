// Package adminserver exposes the push dispatch core's operational surface:
// health, pending/in-flight stats, and a stop-switch toggle for operating it
// without a restart.
package adminserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/regpush/pushcore/internal/config"
)

// Processor is the subset of *push.Processor the admin surface needs.
// Declared locally to avoid a dependency cycle between internal/push and
// internal/adminserver.
type Processor interface {
	PendingCount() int
	InFlightCount() int
}

// Server wraps a chi router over a running Processor and Config.
type Server struct {
	router *chi.Mux
	proc   Processor
	cfg    *config.Config
	logger *zap.Logger
}

// New builds the admin router. The caller is responsible for running an
// *http.Server against it (see cmd/pushcore/serve.go).
func New(proc Processor, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{proc: proc, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/stop-push", s.handleStopPush)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("admin request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pending":        s.proc.PendingCount(),
		"inFlight":       s.proc.InFlightCount(),
		"stopPushSwitch": s.cfg.IsStopPushSwitch(),
	})
}

// handleStopPush flips the stop-push switch. Body: {"stop": true|false}.
func (s *Server) handleStopPush(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Stop bool `json:"stop"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.cfg.SetStopPushSwitch(body.Stop)
	s.logger.Info("stop-push switch set via admin API", zap.Bool("stop", body.Stop))
	writeJSON(w, http.StatusOK, map[string]bool{"stopPushSwitch": body.Stop})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
