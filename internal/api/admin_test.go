package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"buddyboard/internal/models"
	"buddyboard/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBooking(t *testing.T) {
	env := newTestEnv(t, testAPIConfig())
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/bookings", "", anaLi())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Booking
	decode(t, resp, &created)

	resp = env.do(t, http.MethodGet, "/api/bookings/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Booking
	decode(t, resp, &got)
	assert.Equal(t, created, got)

	resp = env.do(t, http.MethodGet, "/api/bookings/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Booking not found", errorMessage(t, resp))

	resp = env.do(t, http.MethodGet, "/api/bookings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAdminActionsAreAttributed(t *testing.T) {
	out := &syncBuffer{}
	env := newTestEnvWithLogger(t, testAPIConfig(), zerolog.New(out))
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/bookings", "", anaLi())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Booking
	decode(t, resp, &created)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/bookings", token,
		map[string]string{"id": created.ID, "status": "completed"}).StatusCode)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/bookings?id="+created.ID, token, nil).StatusCode)

	var update, del string
	for _, line := range strings.Split(out.String(), "\n") {
		switch {
		case strings.Contains(line, `"action":"update"`):
			update = line
		case strings.Contains(line, `"action":"delete"`):
			del = line
		}
	}
	require.NotEmpty(t, update, "update must be audited")
	require.NotEmpty(t, del, "delete must be audited")
	assert.Contains(t, update, `"admin":"admin"`)
	assert.Contains(t, update, `"booking_id":"`+created.ID+`"`)
	assert.Contains(t, update, `"status":"completed"`)
	assert.Contains(t, del, `"admin":"admin"`)
}

type brokenLimiter struct{}

func (brokenLimiter) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestReadyzReportsDegradedLimiter(t *testing.T) {
	logger := zerolog.New(io.Discard)
	limiter := repository.NewFailoverLimiter(brokenLimiter{}, repository.NewMemoryLimiter(), &logger)
	cfg := testAPIConfig()
	srv := NewHTTPServer(cfg, Deps{Submit: limiter}, &logger)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","submit_limiter":"ok"}`, rec.Body.String())

	allowed, err := limiter.CheckRateLimit(context.Background(), "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","submit_limiter":"degraded"}`, rec.Body.String())
}
