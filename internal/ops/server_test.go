package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/adapters/memory"
	"github.com/hearthlabs/hearth/internal/logging"
	"github.com/hearthlabs/hearth/pkg/domain"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.TurnsTotal.WithLabelValues("onboarding", "message").Inc()
	return NewServer(":0", store, reg, logging.NewNop()), store
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hearth_turns_total")
	assert.Contains(t, rec.Body.String(), "hearth_turn_duration_seconds")
}

func TestSessionsEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	record := domain.NewStateRecord(domain.ThreadOnboarding, "step-1", "g1", "m1")
	require.NoError(t, store.Save(ctx, "u1", record))

	rec := get(t, s, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []sessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "u1", sessions[0].UserID)
	assert.Equal(t, "onboarding", sessions[0].Thread)
	assert.Equal(t, "g1", sessions[0].GuildID)
}

func TestSessionsEndpointEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
