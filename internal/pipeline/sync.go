package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/quake-cluster-service/internal/domain"
)

// CatalogStore is the persisted catalog collaborator. Upsert must be atomic
// per stable key: insert at version 1 when unseen, otherwise overwrite the
// mutable fields and bump version by one while preserving id, slug, and
// created_at.
type CatalogStore interface {
	Upsert(ctx context.Context, def domain.ClusterDefinition) (domain.UpsertOutcome, error)
}

// Synchronizer turns a summarized cluster into a catalog row. The slug is
// composed before the upsert on every attempt, but only the first observation
// of a stable key persists it; the catalog discards the candidate slug on
// updates, which is what keeps shared URLs stable across recomputations.
type Synchronizer struct {
	store  CatalogStore
	logger *slog.Logger
}

// NewSynchronizer creates a Synchronizer backed by the given catalog.
func NewSynchronizer(store CatalogStore, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{store: store, logger: logger}
}

// Sync implements ClusterSyncer.
func (s *Synchronizer) Sync(ctx context.Context, stableKey string, sum domain.ClusterSummary) (domain.CatalogChange, error) {
	slug := domain.MakeSlug(len(sum.EventIDs), sum.LocationName, sum.MaxMagnitude, stableKey)
	def := domain.NewClusterDefinition(stableKey, slug, sum)

	outcome, err := s.store.Upsert(ctx, def)
	if err != nil {
		return domain.CatalogChange{}, fmt.Errorf("upsert %s: %w", stableKey, err)
	}

	// Reflect what actually landed: on update the stored id, slug, version,
	// and created_at win over the freshly built candidates.
	def.ID = outcome.ID
	def.Slug = outcome.Slug
	def.Version = outcome.Version
	def.CreatedAt = outcome.CreatedAt

	action := domain.ActionUpdated
	if outcome.Created {
		action = domain.ActionCreated
		s.logger.Info("cluster definition created",
			"stable_key", stableKey, "slug", def.Slug, "quakes", def.QuakeCount)
	} else {
		s.logger.Debug("cluster definition updated",
			"stable_key", stableKey, "slug", def.Slug, "version", def.Version, "quakes", def.QuakeCount)
	}
	return domain.CatalogChange{Action: action, Definition: def}, nil
}
