package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/roadscan/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, r *bufio.Reader) map[string]interface{} {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &out))
		return out
	}
}

func TestEventsStreamHandler_ForwardsEvents(t *testing.T) {
	bus := events.NewBus()
	h := NewEventsStreamHandler(bus, zerolog.New(nil).Level(zerolog.Disabled))

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?types=item_completed,scan_completed", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readEvent(t, reader)["type"])

	assert.Equal(t, 1, bus.Subscribers(events.ItemCompleted))
	assert.Equal(t, 0, bus.Subscribers(events.ScanStarted))

	// Filtered out
	bus.Emit("scanning", &events.ScanStartedData{RunID: "r1", Items: 2})
	bus.Emit("scanning", &events.ItemCompletedData{RunID: "r1", Index: 0, Path: "a.png", EntropyScore: 0.25})

	got := readEvent(t, reader)
	assert.Equal(t, string(events.ItemCompleted), got["type"])
	assert.Equal(t, "scanning", got["module"])
	data, ok := got["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "a.png", data["path"])
}

func TestEventsStreamHandler_UnsubscribesOnDisconnect(t *testing.T) {
	bus := events.NewBus()
	h := NewEventsStreamHandler(bus, zerolog.New(nil).Level(zerolog.Disabled))

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	readEvent(t, bufio.NewReader(resp.Body))
	for _, typ := range events.AllTypes {
		assert.Equal(t, 1, bus.Subscribers(typ))
	}

	cancel()
	resp.Body.Close()

	assert.Eventually(t, func() bool {
		return bus.Subscribers(events.ScanStarted) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsStreamHandler_Heartbeat(t *testing.T) {
	bus := events.NewBus()
	h := NewEventsStreamHandler(bus, zerolog.New(nil).Level(zerolog.Disabled))
	h.heartbeat = 20 * time.Millisecond

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)
	assert.Equal(t, "heartbeat", readEvent(t, reader)["type"])
}

func TestEventsStreamHandler_RejectsPost(t *testing.T) {
	h := NewEventsStreamHandler(events.NewBus(), zerolog.New(nil).Level(zerolog.Disabled))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestParseTypesFilter(t *testing.T) {
	assert.Equal(t, events.AllTypes, parseTypesFilter(""))
	assert.Equal(t, []events.EventType{events.ScanStarted}, parseTypesFilter("scan_started, SCAN_STARTED, bogus"))
	assert.Empty(t, parseTypesFilter("bogus"))
}
