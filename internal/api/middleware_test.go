package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(accessLog(&logger))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/items/42", line["path"])
	assert.Equal(t, "/items/{id}", line["route"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "info", line["level"])
}

func TestRoutePatternUnmatched(t *testing.T) {
	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}
