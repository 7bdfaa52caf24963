// Package catalog persists cluster definitions in SQLite, keyed by stable key.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/couchcryptid/quake-cluster-service/internal/domain"
)

var (
	// ErrNotFound is returned by lookups when no row matches.
	ErrNotFound = errors.New("cluster definition not found")
	// ErrStoreClosed is returned by all operations after Close.
	ErrStoreClosed = errors.New("catalog store is closed")
)

// Store is the persisted cluster catalog. It is suitable for single-process
// production use; the upsert is a single SQL statement, so two overlapping
// runs writing the same stable key serialize inside SQLite instead of racing
// a lookup-then-write.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewStore opens (or creates) the catalog at path. Use ":memory:" for tests.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	// A :memory: database exists per connection; one connection also keeps
	// file-backed writes serialized without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cluster_definitions (
			id                 TEXT PRIMARY KEY,
			stable_key         TEXT NOT NULL UNIQUE,
			slug               TEXT NOT NULL UNIQUE,
			event_ids          TEXT NOT NULL,
			quake_count        INTEGER NOT NULL,
			strongest_event_id TEXT NOT NULL,
			location_name      TEXT NOT NULL,
			min_magnitude      REAL NOT NULL,
			max_magnitude      REAL NOT NULL,
			mean_magnitude     REAL NOT NULL,
			start_time_ms      INTEGER NOT NULL,
			end_time_ms        INTEGER NOT NULL,
			duration_hours     REAL NOT NULL,
			anchor_lat         REAL NOT NULL,
			anchor_lon         REAL NOT NULL,
			depth_range        TEXT NOT NULL,
			significance       REAL NOT NULL,
			version            INTEGER NOT NULL,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog table: %w", err)
	}

	return &Store{db: db}, nil
}

// Upsert inserts a new definition at version 1 or, when the stable key
// already exists, overwrites the mutable derived fields and bumps version by
// exactly one. id, slug, stable_key, and created_at are never listed in the
// UPDATE set, so they are immutable by construction; the candidate slug on an
// update attempt is simply discarded. The whole decision is one atomic SQL
// statement.
func (s *Store) Upsert(ctx context.Context, def domain.ClusterDefinition) (domain.UpsertOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.UpsertOutcome{}, ErrStoreClosed
	}

	eventIDs, err := json.Marshal(def.EventIDs)
	if err != nil {
		return domain.UpsertOutcome{}, fmt.Errorf("encode event ids: %w", err)
	}
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cluster_definitions (
			id, stable_key, slug, event_ids, quake_count, strongest_event_id,
			location_name, min_magnitude, max_magnitude, mean_magnitude,
			start_time_ms, end_time_ms, duration_hours, anchor_lat, anchor_lon,
			depth_range, significance, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(stable_key) DO UPDATE SET
			event_ids          = excluded.event_ids,
			quake_count        = excluded.quake_count,
			strongest_event_id = excluded.strongest_event_id,
			location_name      = excluded.location_name,
			min_magnitude      = excluded.min_magnitude,
			max_magnitude      = excluded.max_magnitude,
			mean_magnitude     = excluded.mean_magnitude,
			start_time_ms      = excluded.start_time_ms,
			end_time_ms        = excluded.end_time_ms,
			duration_hours     = excluded.duration_hours,
			anchor_lat         = excluded.anchor_lat,
			anchor_lon         = excluded.anchor_lon,
			depth_range        = excluded.depth_range,
			significance       = excluded.significance,
			version            = cluster_definitions.version + 1,
			updated_at         = excluded.updated_at
		RETURNING id, slug, version, created_at
	`,
		id, def.StableKey, def.Slug, string(eventIDs), def.QuakeCount, def.StrongestEventID,
		def.LocationName, def.MinMagnitude, def.MaxMagnitude, def.MeanMagnitude,
		def.StartTimeMs, def.EndTimeMs, def.DurationHours, def.AnchorLat, def.AnchorLon,
		def.DepthRange, def.Significance,
		def.CreatedAt.UTC().Format(time.RFC3339Nano), def.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)

	var out domain.UpsertOutcome
	var createdAt string
	if err := row.Scan(&out.ID, &out.Slug, &out.Version, &createdAt); err != nil {
		return domain.UpsertOutcome{}, fmt.Errorf("upsert cluster definition: %w", err)
	}
	out.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.UpsertOutcome{}, fmt.Errorf("parse created_at: %w", err)
	}
	out.Created = out.Version == 1
	return out, nil
}

// GetByStableKey returns the definition for a stable key, or ErrNotFound.
func (s *Store) GetByStableKey(ctx context.Context, stableKey string) (domain.ClusterDefinition, error) {
	return s.getWhere(ctx, "stable_key = ?", stableKey)
}

// GetBySlug returns the definition for a slug, or ErrNotFound. Downstream
// consumers resolve shareable URLs through this lookup.
func (s *Store) GetBySlug(ctx context.Context, slug string) (domain.ClusterDefinition, error) {
	return s.getWhere(ctx, "slug = ?", slug)
}

func (s *Store) getWhere(ctx context.Context, where string, arg any) (domain.ClusterDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ClusterDefinition{}, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, stable_key, slug, event_ids, quake_count, strongest_event_id,
			location_name, min_magnitude, max_magnitude, mean_magnitude,
			start_time_ms, end_time_ms, duration_hours, anchor_lat, anchor_lon,
			depth_range, significance, version, created_at, updated_at
		FROM cluster_definitions
		WHERE `+where, arg)

	var def domain.ClusterDefinition
	var eventIDs, createdAt, updatedAt string
	err := row.Scan(
		&def.ID, &def.StableKey, &def.Slug, &eventIDs, &def.QuakeCount, &def.StrongestEventID,
		&def.LocationName, &def.MinMagnitude, &def.MaxMagnitude, &def.MeanMagnitude,
		&def.StartTimeMs, &def.EndTimeMs, &def.DurationHours, &def.AnchorLat, &def.AnchorLon,
		&def.DepthRange, &def.Significance, &def.Version, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ClusterDefinition{}, ErrNotFound
	}
	if err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("load cluster definition: %w", err)
	}

	if err := json.Unmarshal([]byte(eventIDs), &def.EventIDs); err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("decode event ids: %w", err)
	}
	if def.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("parse created_at: %w", err)
	}
	if def.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return def, nil
}

// Count returns the number of persisted definitions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cluster_definitions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cluster definitions: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
