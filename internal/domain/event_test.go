package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClusterDefinition(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	defer SetClock(nil)

	sum := ClusterSummary{
		Strongest:     QuakeEvent{ID: "ev2", Magnitude: 4.7, Lat: 35.77, Lon: -117.61},
		MinMagnitude:  2.1,
		MaxMagnitude:  4.7,
		MeanMagnitude: 3.2,
		StartTimeMs:   1700000000000,
		EndTimeMs:     1700010800000,
		DurationHours: 3.0,
		LocationName:  "10km E of Ridgecrest, CA",
		AnchorLat:     35.77,
		AnchorLon:     -117.61,
		DepthRange:    "2.5-8km",
		EventIDs:      []string{"ev1", "ev2", "ev3"},
		Significance:  2.24,
	}

	def := NewClusterDefinition("qc1_ridgecrest-ca_78703_35.8--117.6", "the-slug", sum)

	assert.Empty(t, def.ID, "the catalog assigns ids")
	assert.Equal(t, "qc1_ridgecrest-ca_78703_35.8--117.6", def.StableKey)
	assert.Equal(t, "the-slug", def.Slug)
	assert.Equal(t, 3, def.QuakeCount)
	assert.Equal(t, "ev2", def.StrongestEventID)
	assert.Equal(t, sum.LocationName, def.LocationName)
	assert.Equal(t, sum.DepthRange, def.DepthRange)
	assert.Equal(t, int64(1), def.Version)
	require.True(t, now.Equal(def.CreatedAt))
	require.True(t, now.Equal(def.UpdatedAt))
}
