package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/roadscan/internal/config"
	"github.com/aristath/roadscan/internal/di"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		DataDir:     t.TempDir(),
		ScanWorkers: 1,
		OpenAI:      config.OpenAIConfig{APIKey: "test-key"},
		Backup:      &config.BackupConfig{},
	}
	log := zerolog.New(nil).Level(zerolog.Disabled)

	container, err := di.Wire(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	return New(Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Port:      0,
		DevMode:   true,
	})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "roadscan", body["service"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, float64(0), body["records"])
	}
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/api/records/", "", http.StatusOK},
		{http.MethodGet, "/api/records/export?format=json", "", http.StatusOK},
		{http.MethodGet, "/api/scans/", "", http.StatusOK},
		{http.MethodGet, "/api/scans/unknown-run", "", http.StatusNotFound},
		{http.MethodPost, "/api/scans/", `{"directory":"/definitely/not/here"}`, http.StatusBadRequest},
		{http.MethodGet, "/api/quantum/circuit", "", http.StatusOK},
		{http.MethodPost, "/api/quantum/evaluate", `{"vector":[0.5,0,0,0.5,0,0,0]}`, http.StatusOK},
		{http.MethodPost, "/api/scoring/entropy", `{"color_vector":[1,2,3],"quantum_output":[0.5,0.5]}`, http.StatusOK},
		{http.MethodGet, "/api/system/database", "", http.StatusOK},
		{http.MethodPost, "/api/system/backup", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}
