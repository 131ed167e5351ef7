package flatmap

import (
	"github.com/paulmach/orb"
)

// Annotation is the descriptive metadata associated with a feature id.
// Annotations are loaded once at map-ready time and are read-only afterwards.
type Annotation struct {
	ID     string   `json:"id"`
	Label  string   `json:"label,omitempty"`
	Models []string `json:"models,omitempty"`
	Text   string   `json:"text,omitempty"`
	Layer  string   `json:"layer,omitempty"`
	URL    string   `json:"url,omitempty"`

	// BBox is a precomputed [minX, minY, maxX, maxY] bounding box.
	BBox []float64 `json:"bounds,omitempty"`

	// Error describes an annotation-validation failure found at authoring
	// time. Erroneous annotations still render and stay interactive.
	Error string `json:"error,omitempty"`
}

// HasModels reports whether the annotation carries ontology model ids.
func (a *Annotation) HasModels() bool {
	return a != nil && len(a.Models) > 0
}

// Bound returns the precomputed bounding box, if present.
func (a *Annotation) Bound() (orb.Bound, bool) {
	if a == nil || len(a.BBox) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{a.BBox[0], a.BBox[1]},
		Max: orb.Point{a.BBox[2], a.BBox[3]},
	}, true
}
