package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"buddyboard/internal/config"
	"buddyboard/internal/database"
	"buddyboard/internal/repository"
	"buddyboard/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "admin"
	testPassword = "admin"
)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Username:    testUser,
			Password:    testPassword,
			TokenSecret: "test-secret-0123456789",
			TokenTTL:    3600,
			Issuer:      "buddyboard-test",
		},
		RateLimit: config.APIRateLimitConfig{RPS: 100, Burst: 100},
		Submit:    config.SubmitLimitConfig{Limit: 100, Window: 60},
	}
}

type testEnv struct {
	ts        *httptest.Server
	storePath string
}

func newTestEnv(t *testing.T, cfg config.APIConfig) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, cfg, zerolog.New(io.Discard))
}

func newTestEnvWithLogger(t *testing.T, cfg config.APIConfig, logger zerolog.Logger) *testEnv {
	t.Helper()

	storePath := filepath.Join(t.TempDir(), "data", "bookings.json")
	store, err := database.NewFileStore(storePath, &logger)
	require.NoError(t, err)

	srv := NewHTTPServer(cfg, Deps{
		Bookings: service.NewBookingService(store, nil, &logger),
		Auth:     service.NewAuthService(cfg.Auth, &logger),
		Submit:   repository.NewMemoryLimiter(),
		Store:    store,
	}, &logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, storePath: storePath}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth", "", map[string]string{"username": testUser, "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body loginResponse
	decode(t, resp, &body)
	require.True(t, body.Success)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	decode(t, resp, &body)
	return body.Error
}

func anaLi() map[string]string {
	return map[string]string{
		"fullName":  "Ana Li",
		"email":     "a@x.com",
		"phone":     "555",
		"company":   "Acme",
		"_service":  "web-dev",
		"_budget":   "15-30",
		"_timeline": "3-4",
		"_source":   "google",
		"message":   "Need a site",
	}
}
