// Package domain models earthquake events and their spatial-temporal clusters.
//
// # Data Source
//
// Events originate from a USGS-style GeoJSON summary feed (for example
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_week.geojson).
// Each feature carries an event id, a magnitude, a human place description, a
// millisecond epoch time, and [lon, lat, depth] coordinates. The feed is a
// rolling window: every scheduled run re-fetches the whole window and the
// clustering below is recomputed from scratch.
//
// # USGS Data Conventions
//
// Place format:
//
//	"<distance><unit> <compass> of <region>"  →  e.g. "10km ESE of Ridgecrest, CA"
//	Reports at a named location omit the relative prefix (e.g. "Ridgecrest, CA").
//	The trailing region is the stable part of the string; the relative prefix
//	jitters between revisions of the same event.
//
// Coordinates:
//
//	GeoJSON position [lon, lat, depth]. Depth is kilometers below the surface
//	and may be null or absent for some networks; such events still cluster but
//	are excluded from depth-range statistics.
//
// Magnitude:
//
//	A single float on whatever scale the reporting network uses (ml, mb, mw).
//	The feed may publish null magnitudes for unreviewed events; these parse
//	as 0 (unmeasured).
//
// # Cluster Identity
//
// Clusters are recomputed against a sliding window, so exact membership of
// "the same" earthquake sequence drifts from run to run. Externally shared
// identifiers must not. [NewStableKey] therefore derives a quantized identity
// from the coarse location, a coarse time bucket, and rounded coordinates of
// the cluster's strongest event: small membership or timing perturbations map
// to the same key, while genuinely distinct sequences map to different keys.
// The key carries a schema tag so the derivation can be changed later without
// colliding with keys minted under the old scheme.
package domain
