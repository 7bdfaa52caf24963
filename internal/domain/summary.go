package domain

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// unknownLocationName is used when the strongest event carries no place text.
const unknownLocationName = "Unknown Location"

// Summarize derives the per-cluster statistics. The strongest event is the
// member with the highest magnitude; on a tie the lexicographically lowest
// event id wins, since member order carries no meaning. Anchor coordinates
// are the strongest event's position, not a centroid.
func Summarize(c Cluster) (ClusterSummary, error) {
	if len(c) == 0 {
		return ClusterSummary{}, errors.New("summarize: empty cluster")
	}

	strongest := c[0]
	minMag, maxMag, sumMag := c[0].Magnitude, c[0].Magnitude, c[0].Magnitude
	start, end := c[0].TimeMs, c[0].TimeMs

	for _, e := range c[1:] {
		if e.Magnitude > strongest.Magnitude ||
			(e.Magnitude == strongest.Magnitude && e.ID < strongest.ID) {
			strongest = e
		}
		minMag = math.Min(minMag, e.Magnitude)
		maxMag = math.Max(maxMag, e.Magnitude)
		sumMag += e.Magnitude
		if e.TimeMs < start {
			start = e.TimeMs
		}
		if e.TimeMs > end {
			end = e.TimeMs
		}
	}

	durationHours := 0.0
	if end > start {
		durationHours = float64(end-start) / 3.6e6
	}

	location := strings.TrimSpace(strongest.Place)
	if location == "" {
		location = unknownLocationName
	}

	ids := make([]string, len(c))
	for i, e := range c {
		ids[i] = e.ID
	}
	sort.Strings(ids)

	return ClusterSummary{
		Strongest:     strongest,
		MinMagnitude:  minMag,
		MaxMagnitude:  maxMag,
		MeanMagnitude: sumMag / float64(len(c)),
		StartTimeMs:   start,
		EndTimeMs:     end,
		DurationHours: durationHours,
		LocationName:  location,
		AnchorLat:     strongest.Lat,
		AnchorLon:     strongest.Lon,
		DepthRange:    depthRangeText(c),
		EventIDs:      ids,
		Significance:  significanceScore(maxMag, len(c)),
	}, nil
}

// depthRangeText formats the min-max depth over members with a known depth,
// e.g. "2.1-11.5km". Returns "Unknown" when no member has one.
func depthRangeText(c Cluster) string {
	var minDepth, maxDepth float64
	found := false
	for _, e := range c {
		if e.DepthKm == nil {
			continue
		}
		d := *e.DepthKm
		if !found {
			minDepth, maxDepth = d, d
			found = true
			continue
		}
		minDepth = math.Min(minDepth, d)
		maxDepth = math.Max(maxDepth, d)
	}
	if !found {
		return "Unknown"
	}
	return formatKm(minDepth) + "-" + formatKm(maxDepth) + "km"
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// significanceScore ranks clusters by strongest magnitude weighted by size.
// Used only for ordering; it is not a persistence threshold.
func significanceScore(maxMagnitude float64, memberCount int) float64 {
	if memberCount == 0 {
		return 0
	}
	return maxMagnitude * math.Log10(float64(memberCount))
}
