package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-cluster-service/internal/domain"
)

type stubReadiness struct {
	err error
}

func (s *stubReadiness) CheckReadiness(context.Context) error { return s.err }

type stubStatus struct {
	summary     domain.RunSummary
	completedAt time.Time
	hasRun      bool
}

func (s *stubStatus) LastRun() (domain.RunSummary, time.Time, bool) {
	return s.summary, s.completedAt, s.hasRun
}

func newTestServer(ready *stubReadiness, status *stubStatus) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(":0", ready, status, logger)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubReadiness{}, &stubStatus{})

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&stubReadiness{}, &stubStatus{})

		rec := get(t, srv, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(&stubReadiness{err: errors.New("pipeline not running")}, &stubStatus{})

		rec := get(t, srv, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "pipeline not running")
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("before the first run", func(t *testing.T) {
		srv := newTestServer(&stubReadiness{}, &stubStatus{})

		rec := get(t, srv, "/status")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no completed runs")
	})

	t.Run("after a run", func(t *testing.T) {
		completed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
		status := &stubStatus{
			summary: domain.RunSummary{
				EventsFetched:       340,
				CandidateClusters:   12,
				SignificantClusters: 4,
				Processed:           4,
				Created:             1,
				Updated:             3,
				Errors:              []domain.RunError{{StableKey: "k", Message: "boom"}},
			},
			completedAt: completed,
			hasRun:      true,
		}
		srv := newTestServer(&stubReadiness{}, status)

		rec := get(t, srv, "/status")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, completed.Equal(resp.CompletedAt))
		assert.Equal(t, 340, resp.Summary.EventsFetched)
		assert.Equal(t, 1, resp.Summary.Created)
		assert.Equal(t, 3, resp.Summary.Updated)
		require.Len(t, resp.Summary.Errors, 1)
		assert.Equal(t, "boom", resp.Summary.Errors[0].Message)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubReadiness{}, &stubStatus{})

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestUnknownRouteIs404(t *testing.T) {
	srv := newTestServer(&stubReadiness{}, &stubStatus{})

	rec := get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
