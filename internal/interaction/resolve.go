package interaction

import (
	"github.com/paulmach/orb"

	"flatmap-viewer/internal/engine"
	"flatmap-viewer/internal/state"
	"flatmap-viewer/pkg/geometry"
)

// activeFeaturesAt returns the rendered features under a point whose source
// layer is active and which carry a feature identifier.
func (c *Controller) activeFeaturesAt(at orb.Point) []*engine.FeatureRef {
	refs := c.engine.QueryRenderedFeatures(&at)
	if len(refs) == 0 {
		return nil
	}

	active := make(map[string]bool)
	for _, name := range c.layerManager.ActiveLayerNames() {
		active[name] = true
	}

	kept := refs[:0:0]
	for _, f := range refs {
		if f.ID != "" && active[f.SourceLayer] {
			kept = append(kept, f)
		}
	}
	return kept
}

// smallestAnnotatedPolygon picks the minimum-area annotated polygon among
// the candidates. Overlapping anatomical regions nest, so the smallest
// covering polygon is almost always the intended target. Equal areas keep
// the first candidate encountered; candidate order comes from the engine.
func (c *Controller) smallestAnnotatedPolygon(candidates []*engine.FeatureRef) *engine.FeatureRef {
	var best *engine.FeatureRef
	var bestArea float64

	for _, f := range candidates {
		if !f.IsPolygon() || !c.flags.Has(f.Key(), state.FlagAnnotated) {
			continue
		}
		area := geometry.Area(f.Geometry)
		if best == nil || area < bestArea {
			best = f
			bestArea = area
		}
	}
	return best
}

// smallestAreaProperty picks the labeled feature with the smallest declared
// "area" property. Used by the viewer hover fallback, where the renderer
// supplies area as a feature property rather than geometry.
func smallestAreaProperty(candidates []*engine.FeatureRef) *engine.FeatureRef {
	var best *engine.FeatureRef
	var bestArea float64

	for _, f := range candidates {
		label, _ := f.Properties["label"].(string)
		if label == "" {
			continue
		}
		area, ok := f.Properties["area"].(float64)
		if !ok {
			area = geometry.Area(f.Geometry)
		}
		if best == nil || area < bestArea {
			best = f
			bestArea = area
		}
	}
	return best
}
