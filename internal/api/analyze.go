package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const analyzeKeepAliveInterval = 25 * time.Second

// handleAnalyze starts an analysis run and streams its lifecycle events as
// server-sent events. The stream ends after the terminal event. Closing the
// connection stops delivery but not the run itself.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("repo")
	if ref == "" {
		WriteError(w, ErrBadRequest.WithDetails("repo query parameter is required"))
		return
	}

	controller := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprint(w, ": connected\n\n")
	if err := controller.Flush(); err != nil {
		s.logger.Error("Streaming unsupported by response writer", "error", err)
		return
	}

	events := s.runner.Run(r.Context(), ref)

	ticker := time.NewTicker(analyzeKeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			body, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, body); err != nil {
				return
			}
			if err := controller.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := controller.Flush(); err != nil {
				return
			}
		}
	}
}
