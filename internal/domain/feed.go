package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// GeoJSON feed wire types. Coordinates use pointers because the feed
// publishes null for missing depth (and occasionally for positions on
// unreviewed events).

type feedDocument struct {
	Features []feedFeature `json:"features"`
}

type feedFeature struct {
	ID         string         `json:"id"`
	Properties feedProperties `json:"properties"`
	Geometry   feedGeometry   `json:"geometry"`
}

type feedProperties struct {
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	Time  int64    `json:"time"`
}

type feedGeometry struct {
	Coordinates []*float64 `json:"coordinates"` // [lon, lat, depth?]
}

// ParseFeed decodes a GeoJSON summary feed into events. Features without an
// id or with malformed coordinates are dropped rather than failing the feed;
// the second return value counts them so callers can surface the skips.
func ParseFeed(data []byte) ([]QuakeEvent, int, error) {
	var doc feedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse quake feed: %w", err)
	}

	events := make([]QuakeEvent, 0, len(doc.Features))
	skipped := 0
	for _, f := range doc.Features {
		event, ok := parseFeature(f)
		if !ok {
			skipped++
			continue
		}
		events = append(events, event)
	}
	return events, skipped, nil
}

// parseFeature converts one feed feature into a QuakeEvent. Returns false for
// features that cannot participate in distance computation.
func parseFeature(f feedFeature) (QuakeEvent, bool) {
	if f.ID == "" {
		return QuakeEvent{}, false
	}
	coords := f.Geometry.Coordinates
	if len(coords) < 2 || coords[0] == nil || coords[1] == nil {
		return QuakeEvent{}, false
	}
	lon, lat := *coords[0], *coords[1]
	if !ValidCoordinates(lat, lon) {
		return QuakeEvent{}, false
	}

	event := QuakeEvent{
		ID:     f.ID,
		Place:  f.Properties.Place,
		TimeMs: f.Properties.Time,
		Lon:    lon,
		Lat:    lat,
	}
	if f.Properties.Mag != nil && !math.IsNaN(*f.Properties.Mag) {
		event.Magnitude = *f.Properties.Mag
	}
	if len(coords) > 2 && coords[2] != nil && !math.IsNaN(*coords[2]) {
		depth := *coords[2]
		event.DepthKm = &depth
	}
	return event, true
}

// ValidCoordinates reports whether a lat/lon pair is usable for distance
// computation.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
