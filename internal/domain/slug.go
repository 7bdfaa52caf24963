package domain

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
)

const (
	slugLocationMax = 30
	keyGeoMax       = 8
	keyHashMax      = 6
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// MakeSlug composes the human-readable, URL-safe identifier for a cluster.
// It is generated exactly once, when a stable key is first persisted, and
// never regenerated on update. Uniqueness in practice comes from the embedded
// key identifier.
func MakeSlug(count int, locationName string, maxMagnitude float64, stableKey string) string {
	location := slugify(locationName)
	if location == "" {
		location = "unknown-location"
	}
	magnitude := strconv.FormatFloat(maxMagnitude, 'f', 1, 64)
	return fmt.Sprintf("%d-quakes-near-%s-m%s-%s", count, location, magnitude, keyIdentifier(stableKey))
}

// keyIdentifier derives a short discriminator from the stable key. For a
// well-formed key the time bucket plus sanitized geo component is already
// unique per identity; anything else falls back to an FNV-1a hash of the full
// key, base-36 encoded and prefixed so hash-derived identifiers are
// recognizable.
func keyIdentifier(stableKey string) string {
	parts := strings.Split(stableKey, "_")
	if len(parts) == 4 {
		geo := nonAlnumRe.ReplaceAllString(strings.ToLower(parts[3]), "")
		if len(geo) > keyGeoMax {
			geo = geo[:keyGeoMax]
		}
		return parts[2] + geo
	}

	h := fnv.New32a()
	h.Write([]byte(stableKey))
	enc := strconv.FormatUint(uint64(h.Sum32()), 36)
	if len(enc) > keyHashMax {
		enc = enc[:keyHashMax]
	}
	return "skh" + enc
}

// slugify lowercases, collapses whitespace to hyphens, strips everything
// outside [a-z0-9-], and caps the result at 30 characters.
func slugify(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	s = nonAlnumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > slugLocationMax {
		s = strings.TrimRight(s[:slugLocationMax], "-")
	}
	return s
}
