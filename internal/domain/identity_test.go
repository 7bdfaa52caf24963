package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStableKey(t *testing.T) {
	t.Run("composes schema tag, location, bucket and geo", func(t *testing.T) {
		sum := ClusterSummary{
			LocationName: "10km ESE of Ridgecrest, CA",
			StartTimeMs:  43200000, // exactly two 6-hour buckets past epoch
			AnchorLat:    35.77,
			AnchorLon:    -117.61,
		}
		key := NewStableKey(sum, DefaultQuantization())
		assert.Equal(t, "qc1_ridgecrest-ca_2_35.8--117.6", key)
	})

	t.Run("stable when minor membership changes", func(t *testing.T) {
		// Same strongest event, same time bucket; one extra fringe member
		// shifts the mean but must not shift the identity.
		base := ClusterSummary{
			LocationName: "30km SW of Anchorage, Alaska",
			StartTimeMs:  1700006400000, // bucket-aligned
			AnchorLat:    61.05,
			AnchorLon:    -150.32,
		}
		grown := base
		grown.StartTimeMs += 90 * 60 * 1000 // inside the same 6h bucket
		grown.MeanMagnitude = base.MeanMagnitude + 0.3
		grown.EventIDs = append(grown.EventIDs, "fringe")

		assert.Equal(t,
			NewStableKey(base, DefaultQuantization()),
			NewStableKey(grown, DefaultQuantization()))
	})

	t.Run("different buckets produce different keys", func(t *testing.T) {
		sum := ClusterSummary{LocationName: "near Tonga", StartTimeMs: 0}
		other := sum
		other.StartTimeMs = (6 * time.Hour).Milliseconds()

		assert.NotEqual(t, NewStableKey(sum, DefaultQuantization()), NewStableKey(other, DefaultQuantization()))
	})

	t.Run("pre-epoch timestamps bucket toward negative infinity", func(t *testing.T) {
		sum := ClusterSummary{LocationName: "x of Fiji", StartTimeMs: -1}
		key := NewStableKey(sum, DefaultQuantization())
		assert.Contains(t, key, "_-1_")
	})

	t.Run("custom quantization", func(t *testing.T) {
		sum := ClusterSummary{
			LocationName: "5km N of Parkfield, CA",
			StartTimeMs:  3600000,
			AnchorLat:    35.8999,
			AnchorLon:    -120.4321,
		}
		q := Quantization{TimeBucket: time.Hour, GeoDecimals: 2}
		assert.Equal(t, "qc1_parkfield-ca_1_35.90--120.43", NewStableKey(sum, q))
	})

	t.Run("zero value quantization falls back to defaults", func(t *testing.T) {
		sum := ClusterSummary{LocationName: "near Tonga", StartTimeMs: 43200000}
		assert.Equal(t, NewStableKey(sum, DefaultQuantization()), NewStableKey(sum, Quantization{}))
	})
}

func TestLocationComponent(t *testing.T) {
	tests := []struct {
		name  string
		place string
		want  string
	}{
		{"relative prefix stripped", "10km ESE of Ridgecrest, CA", "ridgecrest-ca"},
		{"case insensitive of", "22 km NNE OF Tonga", "tonga"},
		{"no relative prefix kept whole", "Fiji region", "fiji-region"},
		{"punctuation collapses to hyphens", "Puerto Rico (offshore)", "puerto-rico-offshore"},
		{"long region truncated", "somewhere of a very long region name that keeps going", "a-very-long-region-name-that-k"},
		{"empty place", "", "unknown-location"},
		{"punctuation only", "---", "unknown-location"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := locationComponent(tc.place)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len(got), 30)
			assert.False(t, strings.HasSuffix(got, "-"))
		})
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, int64(2), floorDiv(13, 6))
	assert.Equal(t, int64(2), floorDiv(12, 6))
	assert.Equal(t, int64(-1), floorDiv(-1, 6))
	assert.Equal(t, int64(-2), floorDiv(-7, 6))
	assert.Equal(t, int64(-1), floorDiv(-6, 6))
}
