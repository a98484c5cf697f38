package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/roadscan/internal/events"
	"github.com/rs/zerolog"
)

const (
	eventBufferSize   = 100
	heartbeatInterval = 30 * time.Second
)

// EventsStreamHandler handles Server-Sent Events (SSE) streaming of scan and backup events.
type EventsStreamHandler struct {
	eventBus  *events.Bus
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler.
func NewEventsStreamHandler(eventBus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus:  eventBus,
		heartbeat: heartbeatInterval,
		log:       log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream requests (SSE).
// An optional ?types=SCAN_STARTED,ITEM_FAILED narrows the stream.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventTypes := parseTypesFilter(r.URL.Query().Get("types"))

	h.log.Info().Int("types", len(eventTypes)).Msg("Client connected to event stream")

	eventChan := make(chan *events.Event, eventBufferSize)
	eventHandler := func(event *events.Event) {
		// Never block the emitter; a slow client loses events
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	for _, eventType := range eventTypes {
		unsubscribe := h.eventBus.Subscribe(eventType, eventHandler)
		defer unsubscribe()
	}

	h.writeEvent(w, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	})
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event := <-eventChan:
			h.writeEvent(w, map[string]interface{}{
				"type":      string(event.Type),
				"module":    event.Module,
				"timestamp": event.Timestamp.Format(time.RFC3339),
				"data":      event.Data,
			})
			flusher.Flush()

		case <-heartbeat.C:
			h.writeEvent(w, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			flusher.Flush()
		}
	}
}

// parseTypesFilter returns the requested event types, or all of them when
// the filter is empty. Unknown names are ignored.
func parseTypesFilter(filter string) []events.EventType {
	if strings.TrimSpace(filter) == "" {
		return events.AllTypes
	}

	known := make(map[events.EventType]bool, len(events.AllTypes))
	for _, t := range events.AllTypes {
		known[t] = true
	}

	var out []events.EventType
	seen := make(map[events.EventType]bool)
	for _, raw := range strings.Split(filter, ",") {
		t := events.EventType(strings.ToUpper(strings.TrimSpace(raw)))
		if known[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func (h *EventsStreamHandler) writeEvent(w http.ResponseWriter, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		data = []byte(`{"error":"failed to encode event"}`)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
