package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StableKeySchemaTag versions the key derivation. Changing the scheme means
// bumping the tag, so new keys can never collide with rows minted under the
// old one.
const StableKeySchemaTag = "qc1"

const (
	defaultTimeBucket    = 6 * time.Hour
	defaultGeoDecimals   = 1
	locationComponentMax = 30
)

var (
	// relativePlaceRe matches USGS-style relative places, "10km ESE of
	// Ridgecrest, CA", capturing the trailing region. The relative prefix
	// jitters between feed revisions; the region does not.
	relativePlaceRe = regexp.MustCompile(`(?i)^.+?\s+of\s+(.+)$`)

	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Quantization controls how coarsely the stable key buckets time and space.
type Quantization struct {
	TimeBucket  time.Duration
	GeoDecimals int
}

// DefaultQuantization matches the configuration defaults: 6-hour time
// buckets and one decimal place of lat/lon.
func DefaultQuantization() Quantization {
	return Quantization{TimeBucket: defaultTimeBucket, GeoDecimals: defaultGeoDecimals}
}

// NewStableKey derives the quantized identity for a cluster from its summary.
// Two recomputations that share the strongest event and land in the same time
// bucket produce the same key even when the minor membership differs.
func NewStableKey(sum ClusterSummary, q Quantization) string {
	if q.TimeBucket <= 0 {
		q.TimeBucket = defaultTimeBucket
	}
	if q.GeoDecimals < 0 {
		q.GeoDecimals = defaultGeoDecimals
	}

	location := locationComponent(sum.LocationName)
	bucket := floorDiv(sum.StartTimeMs, q.TimeBucket.Milliseconds())
	geo := fmt.Sprintf("%.*f-%.*f", q.GeoDecimals, sum.AnchorLat, q.GeoDecimals, sum.AnchorLon)

	return StableKeySchemaTag + "_" + location + "_" + strconv.FormatInt(bucket, 10) + "_" + geo
}

// locationComponent reduces a place string to its stable region part,
// normalized to lowercase alphanumerics and hyphens and capped at 30 chars.
func locationComponent(place string) string {
	text := strings.TrimSpace(place)
	if m := relativePlaceRe.FindStringSubmatch(text); len(m) == 2 {
		text = m[1]
	}
	text = nonAlnumRe.ReplaceAllString(strings.ToLower(text), "-")
	text = strings.Trim(text, "-")
	if len(text) > locationComponentMax {
		text = strings.TrimRight(text[:locationComponentMax], "-")
	}
	if text == "" {
		return "unknown-location"
	}
	return text
}

// floorDiv is integer division rounding toward negative infinity, so
// pre-epoch timestamps bucket consistently.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
