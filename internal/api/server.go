package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tailrank/tailrank/internal/analyzer"
	"github.com/tailrank/tailrank/internal/config"
	"github.com/tailrank/tailrank/internal/storage"
)

// Runner starts analysis runs. *analyzer.Analyzer satisfies it; tests swap
// in a stub.
type Runner interface {
	Run(ctx context.Context, ref string) <-chan analyzer.Event
}

type Server struct {
	config *config.Config
	db     *storage.Database
	runner Runner
	logger *slog.Logger
}

func NewServer(cfg *config.Config, db *storage.Database, runner Runner, logger *slog.Logger) *Server {
	return &Server{
		config: cfg,
		db:     db,
		runner: runner,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/classes/longest", s.handleLongestClass)
	mux.HandleFunc("GET /api/v1/repositories", s.handleListRepositories)
	mux.HandleFunc("GET /api/v1/repositories/{owner}/{name}", s.handleGetRepository)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("Health check failed", "error", err)
		WriteError(w, APIError{Code: http.StatusServiceUnavailable, Message: "database unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}
