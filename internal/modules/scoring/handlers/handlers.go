// Package handlers provides HTTP handlers for entropy scoring.
package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/modules/scoring"
)

// Handlers contains HTTP handlers for scoring API
type Handlers struct {
	log zerolog.Logger
}

// NewHandlers creates a new scoring handlers instance
func NewHandlers(log zerolog.Logger) *Handlers {
	return &Handlers{
		log: log.With().Str("module", "scoring_handlers").Logger(),
	}
}

// EntropyRequest carries the two vectors the score is computed from
type EntropyRequest struct {
	ColorVector   []float64 `json:"color_vector"`
	QuantumOutput []float64 `json:"quantum_output"`
}

// EntropyResponse represents the response from scoring
type EntropyResponse struct {
	EntropyScore *float64 `json:"entropy_score,omitempty"`
	Error        *string  `json:"error,omitempty"`
}

// HandleEntropy handles POST /api/scoring/entropy
func (h *Handlers) HandleEntropy(w http.ResponseWriter, r *http.Request) {
	var req EntropyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode entropy request")
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	score, err := scoring.EntropyScore(domain.ColorVector(req.ColorVector), domain.QuantumOutput(req.QuantumOutput))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	// JSON has no encoding for Inf or NaN
	if math.IsInf(score, 0) || math.IsNaN(score) {
		h.writeError(w, "entropy score is not finite; vector components are out of range", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, EntropyResponse{EntropyScore: &score})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Generated-At", time.Now().Format(time.RFC3339))
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(EntropyResponse{Error: &message})
}
