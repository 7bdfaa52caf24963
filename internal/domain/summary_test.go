package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depth(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	t.Run("derives statistics from members", func(t *testing.T) {
		a := QuakeEvent{ID: "a", Magnitude: 5.0, Place: "10km E of Ridgecrest, CA", TimeMs: 0, Lat: 35.0, Lon: -117.0, DepthKm: depth(8.0)}
		b := QuakeEvent{ID: "b", Magnitude: 4.0, Place: "22km N of Ridgecrest, CA", TimeMs: 3600000, Lat: 35.3, Lon: -117.0, DepthKm: depth(2.5)}

		sum, err := Summarize(Cluster{a, b})
		require.NoError(t, err)

		assert.Equal(t, "a", sum.Strongest.ID)
		assert.Equal(t, 4.0, sum.MinMagnitude)
		assert.Equal(t, 5.0, sum.MaxMagnitude)
		assert.Equal(t, 4.5, sum.MeanMagnitude)
		assert.Equal(t, int64(0), sum.StartTimeMs)
		assert.Equal(t, int64(3600000), sum.EndTimeMs)
		assert.Equal(t, 1.0, sum.DurationHours)
		assert.Equal(t, "10km E of Ridgecrest, CA", sum.LocationName)
		assert.Equal(t, 35.0, sum.AnchorLat)
		assert.Equal(t, -117.0, sum.AnchorLon)
		assert.Equal(t, "2.5-8km", sum.DepthRange)
		assert.Equal(t, []string{"a", "b"}, sum.EventIDs)
	})

	t.Run("magnitude tie breaks on lowest id", func(t *testing.T) {
		sum, err := Summarize(Cluster{
			{ID: "zz", Magnitude: 4.2, Place: "near Z", TimeMs: 0},
			{ID: "aa", Magnitude: 4.2, Place: "near A", TimeMs: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, "aa", sum.Strongest.ID)
		assert.Equal(t, "near A", sum.LocationName)
	})

	t.Run("tie break is order independent", func(t *testing.T) {
		a := QuakeEvent{ID: "aa", Magnitude: 4.2, TimeMs: 100}
		z := QuakeEvent{ID: "zz", Magnitude: 4.2, TimeMs: 0}

		s1, err := Summarize(Cluster{a, z})
		require.NoError(t, err)
		s2, err := Summarize(Cluster{z, a})
		require.NoError(t, err)
		assert.Equal(t, s1.Strongest.ID, s2.Strongest.ID)
	})

	t.Run("single event cluster has zero duration", func(t *testing.T) {
		sum, err := Summarize(Cluster{{ID: "a", Magnitude: 3.0, TimeMs: 5000}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, sum.DurationHours)
		assert.Equal(t, sum.StartTimeMs, sum.EndTimeMs)
		assert.Equal(t, 3.0, sum.MeanMagnitude)
	})

	t.Run("unknown depth range when no member has depth", func(t *testing.T) {
		sum, err := Summarize(Cluster{
			{ID: "a", Magnitude: 3.0},
			{ID: "b", Magnitude: 3.1},
		})
		require.NoError(t, err)
		assert.Equal(t, "Unknown", sum.DepthRange)
	})

	t.Run("depth range skips members without depth", func(t *testing.T) {
		sum, err := Summarize(Cluster{
			{ID: "a", Magnitude: 3.0, DepthKm: depth(10.0)},
			{ID: "b", Magnitude: 3.1},
			{ID: "c", Magnitude: 3.2, DepthKm: depth(4.25)},
		})
		require.NoError(t, err)
		assert.Equal(t, "4.25-10km", sum.DepthRange)
	})

	t.Run("blank place falls back to unknown location", func(t *testing.T) {
		sum, err := Summarize(Cluster{{ID: "a", Magnitude: 3.0, Place: "   "}})
		require.NoError(t, err)
		assert.Equal(t, "Unknown Location", sum.LocationName)
	})

	t.Run("event ids are sorted", func(t *testing.T) {
		sum, err := Summarize(Cluster{
			{ID: "c", Magnitude: 1},
			{ID: "a", Magnitude: 2},
			{ID: "b", Magnitude: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, sum.EventIDs)
	})

	t.Run("empty cluster is an error", func(t *testing.T) {
		_, err := Summarize(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty cluster")
	})
}

func TestSignificanceScore(t *testing.T) {
	t.Run("grows with member count", func(t *testing.T) {
		assert.Less(t, significanceScore(5.0, 10), significanceScore(5.0, 100))
	})

	t.Run("single member scores zero", func(t *testing.T) {
		// log10(1) == 0: a lone event is never more significant than a swarm.
		assert.Equal(t, 0.0, significanceScore(7.0, 1))
	})

	t.Run("known value", func(t *testing.T) {
		assert.InDelta(t, 5.0, significanceScore(5.0, 10), 1e-12)
	})
}
