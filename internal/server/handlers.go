package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := map[string]interface{}{
		"status":         "healthy",
		"version":        Version,
		"service":        "roadscan",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	}

	status := http.StatusOK
	if err := s.container.ResultsDB.Conn().PingContext(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Health check: database unreachable")
		response["status"] = "degraded"
		response["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		response["database"] = "ok"
		if count, err := s.container.RecordsRepo.Count(ctx); err == nil {
			response["records"] = count
		}
	}

	s.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
