// Package handlers provides HTTP handlers for direct circuit evaluation.
package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/modules/quantum"
	"github.com/aristath/roadscan/internal/modules/scoring"
)

// Handler handles quantum HTTP requests
type Handler struct {
	circuit *quantum.Circuit
	log     zerolog.Logger
}

// NewHandler creates a new quantum handler
func NewHandler(circuit *quantum.Circuit, log zerolog.Logger) *Handler {
	return &Handler{
		circuit: circuit,
		log:     log.With().Str("handler", "quantum").Logger(),
	}
}

// EvaluateRequest represents a request to run the circuit on a feature vector
type EvaluateRequest struct {
	Vector []float64 `json:"vector"`
}

// HandleEvaluate handles POST /api/quantum/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	output, err := h.circuit.Evaluate(req.Vector)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The vector is scored as a color vector; the circuit already rejected empty input
	entropy, err := scoring.EntropyScore(domain.ColorVector(req.Vector), output)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !allFinite(append([]float64{entropy}, output...)) {
		http.Error(w, "vector components are out of range", http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"vector":        req.Vector,
			"output":        output,
			"entropy_score": entropy,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"wires":     h.circuit.Wires(),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetCircuit handles GET /api/quantum/circuit
func (h *Handler) HandleGetCircuit(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"wires":       h.circuit.Wires(),
			"layers":      h.circuit.Layers(),
			"state_size":  1 << h.circuit.Wires(),
			"encoding":    "RY(v[i]*pi), RZ(v[i+1]*pi) per wire, circular indexing",
			"entangler":   "strongly entangling: Rot(phi, theta, omega) per wire, CNOT ring",
			"observable":  "PauliZ per wire",
			"measurement": "exact state-vector expectation",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// allFinite reports whether every value can be encoded as JSON
func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
