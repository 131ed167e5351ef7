package interaction

import (
	"strings"

	"github.com/paulmach/orb"

	"flatmap-viewer/internal/engine"
)

// Policy selects the hover and click behavior for a controller. The two
// shipped policies correspond to the annotation editor and the general
// viewer; they share everything else (selection, highlighting, menus,
// zooming, query dispatch).
type Policy interface {
	HandleHover(c *Controller, ev engine.Event)
	HandleClick(c *Controller, ev engine.Event)
}

// AnnotationPolicy is the annotation-oriented behavior: hover selects the
// smallest annotated polygon and shows its annotation fields; click
// dispatches a data query for the feature under the pointer.
type AnnotationPolicy struct {
	// Drawing reports whether the external freehand drawing control is
	// active. While drawing, hover tolerates unlabeled draft geometry.
	Drawing func() bool
}

func (p *AnnotationPolicy) drawing() bool {
	return p.Drawing != nil && p.Drawing()
}

// HandleHover implements Policy.
func (p *AnnotationPolicy) HandleHover(c *Controller, ev engine.Event) {
	candidates := c.activeFeaturesAt(ev.Point)
	f := c.smallestAnnotatedPolygon(candidates)
	if f == nil && p.drawing() && len(candidates) > 0 {
		f = candidates[0]
	}

	if f != nil {
		c.selectFeature(f)
		if p.showTooltip(c, f, ev.Point) {
			return
		}
	}

	if !c.inQuery {
		c.engine.SetCursor(engine.CursorNone)
	}
	c.tooltip.Hide()
	c.unselectFeature()
}

// showTooltip reports whether the hover produced a presentable state: a
// tooltip, or at least a pointer cursor over a queryable layer.
func (p *AnnotationPolicy) showTooltip(c *Controller, f *engine.FeatureRef, at orb.Point) bool {
	ann := c.fm.Annotation(f.ID)

	if p.drawing() {
		lines := []string{f.ID}
		if ann != nil {
			if ann.Label != "" {
				lines = append(lines, ann.Label)
			}
			if ann.Text != "" {
				lines = append(lines, ann.Text)
			}
			if ann.Error != "" {
				lines = append(lines, "error: "+ann.Error)
			}
		}
		c.tooltip.Hide()
		c.tooltip.Show(at, TextContent(strings.Join(lines, "\n")))
		c.engine.SetCursor(engine.CursorPointer)
		return true
	}

	if ann.HasModels() {
		label := ann.Label
		if label == "" {
			label = ann.Models[0]
		}
		c.tooltip.Hide()
		c.tooltip.Show(at, TextContent(label))
		c.engine.SetCursor(engine.CursorPointer)
		return true
	}

	// No models, but a queryable layer still makes the feature actionable.
	if c.layerManager.LayerQueryable(f.SourceLayer) {
		c.engine.SetCursor(engine.CursorPointer)
		return true
	}

	return false
}

// HandleClick implements Policy: select the smallest annotated polygon and
// dispatch a data query for it, then always drop highlights.
func (p *AnnotationPolicy) HandleClick(c *Controller, ev engine.Event) {
	f := c.smallestAnnotatedPolygon(c.activeFeaturesAt(ev.Point))
	if f != nil {
		c.selectFeature(f)
		c.queryData(f)
	}
	c.unhighlightFeatures()
}

// ViewerPolicy is the general-viewer behavior: hover state is rebuilt from
// scratch on every mousemove, and click only activates point symbols.
type ViewerPolicy struct {
	// Info builds prebuilt display content for the stack of features under
	// the pointer. An empty result falls back to the smallest labeled
	// feature.
	Info func([]*engine.FeatureRef) string
}

// HandleHover implements Policy. No incremental diffing: any existing
// tooltip and active flag are cleared first, then rebuilt.
func (p *ViewerPolicy) HandleHover(c *Controller, ev engine.Event) {
	c.tooltip.Remove()
	c.clearActiveFeature()

	refs := c.engine.QueryRenderedFeatures(&ev.Point)

	var content Content
	if p.Info != nil {
		if info := p.Info(refs); info != "" {
			content = TextContent(info)
		}
	}

	if content.Empty() {
		f := smallestAreaProperty(refs)
		if f != nil {
			c.activateFeature(f)
			if f.IsSymbol() {
				c.engine.SetCursor(engine.CursorPointer)
			} else if c.fm.Options().Tooltips {
				label, _ := f.Properties["label"].(string)
				content = TextContent(label)
			}
		}
	}

	if !content.Empty() {
		c.tooltip.Show(ev.Point, content)
	}
}

// HandleClick implements Policy: record the click location and forward a
// feature-click event for each symbol under the pointer. Selection and
// highlights are untouched; this variant relies on hover for selection.
func (p *ViewerPolicy) HandleClick(c *Controller, ev engine.Event) {
	for _, f := range c.engine.QueryRenderedFeatures(&ev.Point) {
		if !f.IsSymbol() {
			continue
		}
		pt := ev.Point
		c.lastClick = &pt
		c.fm.FeatureEvent("click", f.Properties)
	}
}
