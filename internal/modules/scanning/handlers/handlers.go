// Package handlers provides HTTP handlers for starting and inspecting scans.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/roadscan/internal/domain"
	"github.com/aristath/roadscan/internal/modules/scanning"
)

// Scanner is the subset of the scanning service the handlers use
type Scanner interface {
	StartScan(dir string, workers int) (string, error)
	Status(runID string) (scanning.RunStatus, bool)
	Runs() []scanning.RunStatus
}

// Handler handles scan HTTP requests
type Handler struct {
	scanner Scanner
	log     zerolog.Logger
}

// NewHandler creates a new scans handler
func NewHandler(scanner Scanner, log zerolog.Logger) *Handler {
	return &Handler{
		scanner: scanner,
		log:     log.With().Str("handler", "scans").Logger(),
	}
}

// StartRequest is the body of POST /api/scans
type StartRequest struct {
	Directory string `json:"directory"`
	Workers   int    `json:"workers,omitempty"`
}

// OutcomeView is the operator view of one item
type OutcomeView struct {
	Index        int     `json:"index"`
	Path         string  `json:"path"`
	Location     string  `json:"location"`
	Stage        string  `json:"stage"`
	Failed       bool    `json:"failed"`
	EntropyScore float64 `json:"entropy_score,omitempty"`
	Result       string  `json:"result,omitempty"`
	RecordID     int64   `json:"record_id,omitempty"`
	ErrorKind    string  `json:"error_kind,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// RunView is the JSON form of a tracked run
type RunView struct {
	RunID      string        `json:"run_id"`
	Directory  string        `json:"directory"`
	State      string        `json:"state"`
	Total      int           `json:"total"`
	Done       int           `json:"done"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	StartedAt  string        `json:"started_at"`
	FinishedAt string        `json:"finished_at,omitempty"`
	Error      string        `json:"error,omitempty"`
	Outcomes   []OutcomeView `json:"outcomes,omitempty"`
}

func toRunView(status scanning.RunStatus, withOutcomes bool) RunView {
	view := RunView{
		RunID:     status.RunID,
		Directory: status.Directory,
		State:     string(status.State),
		Total:     status.Total,
		Done:      status.Done,
		StartedAt: status.StartedAt.Format(time.RFC3339),
	}
	if !status.FinishedAt.IsZero() {
		view.FinishedAt = status.FinishedAt.Format(time.RFC3339)
	}
	if status.Err != nil {
		view.Error = status.Err.Error()
	}
	if status.Report == nil {
		return view
	}

	view.Succeeded = status.Report.Succeeded()
	view.Failed = status.Report.Failed()
	if !withOutcomes {
		return view
	}

	view.Outcomes = make([]OutcomeView, len(status.Report.Outcomes))
	for i, o := range status.Report.Outcomes {
		ov := OutcomeView{
			Index:        o.Index,
			Path:         o.Path,
			Location:     o.Location,
			Stage:        o.Stage.String(),
			Failed:       o.Failed(),
			EntropyScore: o.Entropy,
			Result:       o.Result,
		}
		if o.Record != nil {
			ov.RecordID = o.Record.ID
		}
		if o.Err != nil {
			ov.ErrorKind = domain.KindOf(o.Err).String()
			ov.Error = o.Err.Error()
		}
		view.Outcomes[i] = ov
	}
	return view
}

// HandleStart handles POST /api/scans
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Directory == "" {
		http.Error(w, "directory is required", http.StatusBadRequest)
		return
	}
	if req.Workers < 0 {
		http.Error(w, "workers must not be negative", http.StatusBadRequest)
		return
	}

	runID, err := h.scanner.StartScan(req.Directory, req.Workers)
	if err != nil {
		status := http.StatusInternalServerError
		if domain.IsKind(err, domain.KindIO) {
			status = http.StatusBadRequest
		}
		h.log.Warn().Err(err).Str("directory", req.Directory).Msg("Failed to start scan")
		http.Error(w, err.Error(), status)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": runID,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/scans/{runID}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	status, ok := h.scanner.Status(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": toRunView(status, true),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleList handles GET /api/scans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	runs := h.scanner.Runs()
	views := make([]RunView, len(runs))
	for i, status := range runs {
		views[i] = toRunView(status, false)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": views,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(views),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
