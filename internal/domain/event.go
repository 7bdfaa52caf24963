package domain

import "time"

// QuakeEvent is a single reported earthquake parsed from the feed.
type QuakeEvent struct {
	ID        string   `json:"id"`
	Magnitude float64  `json:"magnitude"`
	Place     string   `json:"place"`
	TimeMs    int64    `json:"time_ms"`
	Lon       float64  `json:"lon"`
	Lat       float64  `json:"lat"`
	DepthKm   *float64 `json:"depth_km,omitempty"`
}

// Cluster is a transitively connected group of events under the configured
// distance threshold. It is built fresh each run and never mutated afterwards.
type Cluster []QuakeEvent

// ClusterSummary holds the statistics derived once per cluster.
type ClusterSummary struct {
	Strongest     QuakeEvent `json:"strongest"`
	MinMagnitude  float64    `json:"min_magnitude"`
	MaxMagnitude  float64    `json:"max_magnitude"`
	MeanMagnitude float64    `json:"mean_magnitude"`
	StartTimeMs   int64      `json:"start_time_ms"`
	EndTimeMs     int64      `json:"end_time_ms"`
	DurationHours float64    `json:"duration_hours"`
	LocationName  string     `json:"location_name"`
	AnchorLat     float64    `json:"anchor_lat"`
	AnchorLon     float64    `json:"anchor_lon"`
	DepthRange    string     `json:"depth_range"`
	EventIDs      []string   `json:"event_ids"`
	Significance  float64    `json:"significance"`
}

// ClusterDefinition is the persisted, versioned record for a significant
// cluster. slug, stable_key, id, and created_at are immutable after creation;
// everything else is overwritten on each observation and version increments
// by exactly one.
type ClusterDefinition struct {
	ID               string    `json:"id"`
	StableKey        string    `json:"stable_key"`
	Slug             string    `json:"slug"`
	EventIDs         []string  `json:"event_ids"`
	QuakeCount       int       `json:"quake_count"`
	StrongestEventID string    `json:"strongest_event_id"`
	LocationName     string    `json:"location_name"`
	MinMagnitude     float64   `json:"min_magnitude"`
	MaxMagnitude     float64   `json:"max_magnitude"`
	MeanMagnitude    float64   `json:"mean_magnitude"`
	StartTimeMs      int64     `json:"start_time_ms"`
	EndTimeMs        int64     `json:"end_time_ms"`
	DurationHours    float64   `json:"duration_hours"`
	AnchorLat        float64   `json:"anchor_lat"`
	AnchorLon        float64   `json:"anchor_lon"`
	DepthRange       string    `json:"depth_range"`
	Significance     float64   `json:"significance"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewClusterDefinition builds the row for an upsert attempt. ID is left blank;
// the catalog assigns one on first insert and preserves it afterwards.
func NewClusterDefinition(stableKey, slug string, sum ClusterSummary) ClusterDefinition {
	now := clock.Now().UTC()
	return ClusterDefinition{
		StableKey:        stableKey,
		Slug:             slug,
		EventIDs:         sum.EventIDs,
		QuakeCount:       len(sum.EventIDs),
		StrongestEventID: sum.Strongest.ID,
		LocationName:     sum.LocationName,
		MinMagnitude:     sum.MinMagnitude,
		MaxMagnitude:     sum.MaxMagnitude,
		MeanMagnitude:    sum.MeanMagnitude,
		StartTimeMs:      sum.StartTimeMs,
		EndTimeMs:        sum.EndTimeMs,
		DurationHours:    sum.DurationHours,
		AnchorLat:        sum.AnchorLat,
		AnchorLon:        sum.AnchorLon,
		DepthRange:       sum.DepthRange,
		Significance:     sum.Significance,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// UpsertOutcome reports what the catalog did with an upsert attempt.
type UpsertOutcome struct {
	ID        string
	Slug      string
	Version   int64
	CreatedAt time.Time
	Created   bool
}

// CatalogChange describes a committed catalog write, for announcement to
// downstream consumers.
type CatalogChange struct {
	Action     string            `json:"action"` // "created" or "updated"
	Definition ClusterDefinition `json:"definition"`
}

// Catalog change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// RunError records a per-cluster failure that did not abort the run.
type RunError struct {
	StableKey string `json:"stable_key,omitempty"`
	Message   string `json:"message"`
}

// RunSummary is the operator-visible result of one scheduled run.
type RunSummary struct {
	EventsFetched       int        `json:"events_fetched"`
	CandidateClusters   int        `json:"candidate_clusters"`
	SignificantClusters int        `json:"significant_clusters"`
	Processed           int        `json:"processed"`
	Created             int        `json:"created"`
	Updated             int        `json:"updated"`
	Errors              []RunError `json:"errors,omitempty"`
}
