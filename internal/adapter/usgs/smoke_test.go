//go:build usgs

package usgs

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-cluster-service/internal/observability"
)

// These tests hit the real USGS feed.
// Run with: go test -tags=usgs ./internal/adapter/usgs/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		feedURL:    "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson",
		window:     7 * 24 * time.Hour,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clock:      clockwork.NewRealClock(),
		metrics:    observability.NewMetricsForTesting(),
		logger:     testLogger(),
	}
}

func TestSmoke_FetchWindow(t *testing.T) {
	c := smokeClient(t)

	events, err := c.FetchWindow(context.Background())
	require.NoError(t, err)

	// A week of global seismicity is never empty.
	require.NotEmpty(t, events)
	for _, e := range events[:min(len(events), 50)] {
		assert.NotEmpty(t, e.ID)
		assert.GreaterOrEqual(t, e.Lat, -90.0)
		assert.LessOrEqual(t, e.Lat, 90.0)
		assert.Positive(t, e.TimeMs)
	}
}
