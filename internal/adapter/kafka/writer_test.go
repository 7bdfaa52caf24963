package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-cluster-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	updated := time.Date(2026, 2, 10, 12, 30, 0, 0, time.UTC)
	change := domain.CatalogChange{
		Action: domain.ActionUpdated,
		Definition: domain.ClusterDefinition{
			ID:               "def-1",
			StableKey:        "qc1_ridgecrest-ca_79123_35.8--117.6",
			Slug:             "12-quakes-near-ridgecrest-ca-m5.2-791233581176",
			EventIDs:         []string{"ev1", "ev2"},
			QuakeCount:       2,
			StrongestEventID: "ev1",
			LocationName:     "10km E of Ridgecrest, CA",
			MaxMagnitude:     5.2,
			Version:          3,
			UpdatedAt:        updated,
		},
	}

	msg, err := serializeToMessage(change)
	require.NoError(t, err)

	t.Run("keyed by stable key", func(t *testing.T) {
		assert.Equal(t, "qc1_ridgecrest-ca_79123_35.8--117.6", string(msg.Key))
	})

	t.Run("value carries the full change", func(t *testing.T) {
		var got domain.CatalogChange
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, domain.ActionUpdated, got.Action)
		assert.Equal(t, "def-1", got.Definition.ID)
		assert.Equal(t, int64(3), got.Definition.Version)
		assert.Equal(t, []string{"ev1", "ev2"}, got.Definition.EventIDs)
	})

	t.Run("headers summarize the change for filtering consumers", func(t *testing.T) {
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "updated", headers["action"])
		assert.Equal(t, "12-quakes-near-ridgecrest-ca-m5.2-791233581176", headers["slug"])
		assert.Equal(t, "3", headers["version"])
		assert.Equal(t, "2026-02-10T12:30:00Z", headers["updated_at"])
	})
}
