// Package geometry provides bounding-box utilities used throughout the viewer.
package geometry

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// FeatureBounds returns the bounding box of a feature. If the feature carries
// a precomputed "bounds" (or "bbox") property it is parsed and returned;
// otherwise the box is computed from the feature's current geometry. The
// computed fallback may be smaller than the feature's true extent when the
// geometry is tile-clipped; callers treat this as a known approximation.
func FeatureBounds(f *geojson.Feature) orb.Bound {
	if f == nil {
		return orb.Bound{}
	}
	if b, ok := boundsProperty(f.Properties, "bounds"); ok {
		return b
	}
	if b, ok := boundsProperty(f.Properties, "bbox"); ok {
		return b
	}
	if f.Geometry == nil {
		return orb.Bound{}
	}
	return f.Geometry.Bound()
}

// boundsProperty parses a [minX, minY, maxX, maxY] property, which may be
// stored either as a JSON-encoded string or as a decoded array.
func boundsProperty(props geojson.Properties, key string) (orb.Bound, bool) {
	raw, ok := props[key]
	if !ok {
		return orb.Bound{}, false
	}

	var vals [4]float64
	switch v := raw.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &vals); err != nil {
			return orb.Bound{}, false
		}
	case []interface{}:
		if len(v) != 4 {
			return orb.Bound{}, false
		}
		for i, e := range v {
			f, ok := e.(float64)
			if !ok {
				return orb.Bound{}, false
			}
			vals[i] = f
		}
	default:
		return orb.Bound{}, false
	}

	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, true
}

// MergeBounds returns the smallest box containing both boxes: component-wise
// min of mins, max of maxes. Commutative and associative.
func MergeBounds(a, b orb.Bound) orb.Bound {
	return orb.Bound{
		Min: orb.Point{math.Min(a.Min[0], b.Min[0]), math.Min(a.Min[1], b.Min[1])},
		Max: orb.Point{math.Max(a.Max[0], b.Max[0]), math.Max(a.Max[1], b.Max[1])},
	}
}

// Center returns the center point of a bounding box.
func Center(b orb.Bound) orb.Point {
	return orb.Point{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2}
}

// Area returns the absolute planar area of a geometry. Non-areal geometries
// (points, lines) report zero.
func Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return math.Abs(planar.Area(g))
}
