// Package handlers provides HTTP handlers for the stored results.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/modules/records"
)

// Store is the read side of the records repository
type Store interface {
	List(ctx context.Context, limit int) ([]domain.EncryptedRecord, error)
	ListByRun(ctx context.Context, runID string) ([]domain.EncryptedRecord, error)
	All(ctx context.Context) ([]domain.EncryptedRecord, error)
	Count(ctx context.Context) (int, error)
}

// Handler handles records HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new records handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "records").Logger(),
	}
}

// HandleList handles GET /api/records?limit=N[&run_id=...]
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := records.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var (
		recs []domain.EncryptedRecord
		err  error
	)
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		recs, err = h.store.ListByRun(r.Context(), runID)
	} else {
		recs, err = h.store.List(r.Context(), limit)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list records")
		http.Error(w, "Failed to list records", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []domain.EncryptedRecord{}
	}

	total, err := h.store.Count(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to count records")
		http.Error(w, "Failed to count records", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": recs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(recs),
			"total":     total,
		},
	})
}

// HandleExport handles GET /api/records/export?format=json|msgpack
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := records.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := records.ParseFormat(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	recs, err := h.store.All(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read records for export")
		http.Error(w, "Failed to read records", http.StatusInternalServerError)
		return
	}

	contentType := "application/json"
	if format == records.FormatMsgpack {
		contentType = "application/msgpack"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="road_safety_results.%s"`, format))

	if err := records.Export(w, recs, format); err != nil {
		h.log.Error().Err(err).Msg("Failed to export records")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
