package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEntropy(t *testing.T) {
	h := NewHandlers(zerolog.New(nil).Level(zerolog.Disabled))
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantScore  float64
	}{
		{"constant vectors", `{"color_vector":[1,1],"quantum_output":[2,2]}`, http.StatusOK, 0},
		{"two point spread", `{"color_vector":[0,2],"quantum_output":[1,1]}`, http.StatusOK, 1},
		{"empty color", `{"color_vector":[],"quantum_output":[1]}`, http.StatusBadRequest, 0},
		{"empty quantum", `{"color_vector":[1],"quantum_output":[]}`, http.StatusBadRequest, 0},
		{"malformed", `{`, http.StatusBadRequest, 0},
		{"overflowing score", `{"color_vector":[1e308,-1e308],"quantum_output":[0,0]}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/scoring/entropy", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp EntropyResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			if tt.wantStatus != http.StatusOK {
				require.NotNil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.EntropyScore)
			assert.InDelta(t, tt.wantScore, *resp.EntropyScore, 1e-12)
		})
	}
}
