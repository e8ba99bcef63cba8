package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	defaultRepositoryLimit  = 50
)

// handleLeaderboard returns the globally most frequent class names.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, ErrBadRequest.WithDetails("limit must be a positive integer"))
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	classes, err := s.db.GetTopClasses(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to fetch leaderboard", "error", err)
		WriteError(w, ErrDatabaseFetch)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"classes": classes,
		"limit":   limit,
	})
}

// handleStats returns summary statistics across all completed analyses.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetGlobalStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch global stats", "error", err)
		WriteError(w, ErrDatabaseFetch)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// handleLongestClass returns the single longest class token ever recorded.
func (s *Server) handleLongestClass(w http.ResponseWriter, r *http.Request) {
	longest, err := s.db.GetLongestClassName(r.Context())
	if err != nil {
		s.logger.Error("Failed to fetch longest class", "error", err)
		WriteError(w, ErrDatabaseFetch)
		return
	}
	if longest == nil {
		WriteError(w, APIError{Code: http.StatusNotFound, Message: "No classes recorded yet"})
		return
	}
	s.writeJSON(w, http.StatusOK, longest)
}

// handleListRepositories returns the most recently updated repositories.
func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := s.db.ListRecentRepositories(r.Context(), defaultRepositoryLimit)
	if err != nil {
		s.logger.Error("Failed to list repositories", "error", err)
		WriteError(w, ErrDatabaseFetch)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"repositories": repos,
		"total":        len(repos),
	})
}

// handleGetRepository returns one repository with its full class counts.
func (s *Server) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	name := r.PathValue("name")
	url := fmt.Sprintf("https://github.com/%s/%s", owner, name)

	repo, err := s.db.GetRepositoryByURL(r.Context(), url)
	if err != nil {
		s.logger.Error("Failed to fetch repository", "error", err, "url", url)
		WriteError(w, ErrDatabaseFetch)
		return
	}
	if repo == nil {
		WriteError(w, ErrRepositoryNotFound)
		return
	}

	counts, err := s.db.GetClassCounts(r.Context(), repo.ID)
	if err != nil {
		s.logger.Error("Failed to fetch class counts", "error", err, "repository_id", repo.ID)
		WriteError(w, ErrDatabaseFetch)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"repository":   repo,
		"class_counts": counts,
		"unique_count": len(counts),
	})
}
