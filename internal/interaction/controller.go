// Package interaction binds pointer events on the map surface to feature
// selection, hover tooltips, context menus, zoom framing, and knowledge-query
// dispatch.
package interaction

import (
	"log"
	"time"

	"github.com/paulmach/orb"

	"flatmap-viewer/internal/engine"
	"flatmap-viewer/internal/flatmap"
	"flatmap-viewer/internal/layers"
	"flatmap-viewer/internal/query"
	"flatmap-viewer/internal/state"
	"flatmap-viewer/pkg/geometry"
)

const (
	// Two contextmenu events closer than this are one touch-synthesized
	// gesture, not two requests.
	contextMenuDebounce = 100 * time.Millisecond

	// A touch held at least this long synthesizes a contextmenu event.
	longPressDuration = 500 * time.Millisecond

	// Camera padding when framing a single feature from the context menu.
	zoomPadding = 100
)

// Config wires a Controller to its collaborators. Engine, Events, Map,
// Flags, Tooltip, and Menu are required; the rest are optional.
type Config struct {
	Engine  engine.MapEngine
	Events  engine.EventSource
	Map     *flatmap.FlatMap
	Flags   *state.FlagStore
	Tooltip TooltipPresenter
	Menu    ContextMenuPresenter
	Query   *query.Service

	// Policy selects the hover/click behavior. Defaults to AnnotationPolicy.
	Policy Policy

	// AttachSearch installs the search control; called once at startup when
	// the map is searchable.
	AttachSearch func()

	// CloseLayerSwitcher closes an open layer-switcher widget before click
	// handling.
	CloseLayerSwitcher func()

	// OnLoaded fires exactly once, after all event handlers are wired.
	OnLoaded func()
}

// ViewState is the camera and layer state exposed to the host application.
// On SetState, nil fields are left unchanged.
type ViewState struct {
	Center *orb.Point `json:"center,omitempty"`
	Zoom   *float64   `json:"zoom,omitempty"`
	Layers []string   `json:"layers,omitempty"`
}

// PopupOptions adjusts ShowPopup behavior.
type PopupOptions struct {
	// Anchor overrides the computed popup position.
	Anchor *orb.Point
}

// Controller owns the interaction state machine for one map surface. All of
// its mutable state is touched only from its own event handlers; the event
// source guarantees handlers never run concurrently.
type Controller struct {
	engine       engine.MapEngine
	fm           *flatmap.FlatMap
	flags        *state.FlagStore
	layerManager *layers.Manager
	tooltip      TooltipPresenter
	menu         ContextMenuPresenter
	query        *query.Service
	policy       Policy

	closeLayerSwitcher func()

	selected    *engine.FeatureRef
	highlighted []*engine.FeatureRef
	active      *engine.FeatureRef

	modal   bool
	inQuery bool

	lastContextMenu time.Time
	touchStarted    time.Time
	touchPoint      orb.Point
	lastClick       *orb.Point
}

// New builds a controller and runs the startup sequence: position the map,
// attach search, register layers, flag annotated features, wire events, and
// fire the loaded callback. The order matters: annotation flags must exist
// before the first hover or click can read them.
func New(cfg Config) *Controller {
	c := &Controller{
		engine:             cfg.Engine,
		fm:                 cfg.Map,
		flags:              cfg.Flags,
		tooltip:            cfg.Tooltip,
		menu:               cfg.Menu,
		query:              cfg.Query,
		policy:             cfg.Policy,
		closeLayerSwitcher: cfg.CloseLayerSwitcher,
	}
	if c.policy == nil {
		c.policy = &AnnotationPolicy{}
	}

	c.engine.FitBounds(c.fm.Extent(), engine.FitOptions{Animate: false})

	if c.fm.Options().Searchable && cfg.AttachSearch != nil {
		cfg.AttachSearch()
	}

	c.layerManager = layers.NewManager()
	for _, layer := range layers.Partition(c.fm.Layers()) {
		c.layerManager.AddLayer(layer)
	}

	for _, id := range c.fm.AnnotationIDs() {
		ann := c.fm.Annotation(id)
		key := state.Key{SourceLayer: ann.Layer, FeatureID: id}
		c.flags.Set(key, state.FlagAnnotated)
		if ann.Error != "" {
			c.flags.Set(key, state.FlagAnnotationError)
			log.Printf("annotation %s (%s): %s", id, ann.Label, ann.Error)
		}
	}

	// The modal flag is cleared only here: menu closes can arrive
	// asynchronously (outside click, Escape), never inline at Show.
	c.menu.OnClose(func() {
		c.modal = false
	})

	ev := cfg.Events
	ev.On(engine.EventContextMenu, c.onContextMenu)
	ev.On(engine.EventTouchStart, c.onTouchStart)
	ev.On(engine.EventTouchEnd, c.onTouchEnd)
	ev.On(engine.EventMouseMove, c.onMouseMove)
	ev.On(engine.EventClick, c.onClick)

	if cfg.OnLoaded != nil {
		loaded := cfg.OnLoaded
		cfg.OnLoaded = nil
		loaded()
	}

	return c
}

// --- Selection ---

// selectFeature makes f the single selected feature, clearing the previous
// selection's flag first.
func (c *Controller) selectFeature(f *engine.FeatureRef) {
	c.softUnselect()
	c.flags.Set(f.Key(), state.FlagSelected)
	c.selected = f
}

// softUnselect clears the selection flag but keeps the reference, for
// callers that immediately reselect.
func (c *Controller) softUnselect() {
	if c.selected != nil {
		c.flags.Clear(c.selected.Key(), state.FlagSelected)
	}
}

// unselectFeature clears the selection flag and drops the reference.
func (c *Controller) unselectFeature() {
	c.softUnselect()
	c.selected = nil
}

// --- Highlighting ---

func (c *Controller) highlightFeature(f *engine.FeatureRef) {
	for _, h := range c.highlighted {
		if h.Key() == f.Key() {
			return
		}
	}
	c.flags.Set(f.Key(), state.FlagHighlighted)
	c.highlighted = append(c.highlighted, f)
}

// unhighlightFeatures clears every highlighted flag and empties the set,
// never partially.
func (c *Controller) unhighlightFeatures() {
	for _, f := range c.highlighted {
		c.flags.Clear(f.Key(), state.FlagHighlighted)
	}
	c.highlighted = nil
}

// --- Active (hovered) feature ---

func (c *Controller) activateFeature(f *engine.FeatureRef) {
	if c.active != nil {
		c.flags.Clear(c.active.Key(), state.FlagActive)
	}
	c.flags.Set(f.Key(), state.FlagActive)
	c.active = f
}

func (c *Controller) clearActiveFeature() {
	if c.active == nil {
		return
	}
	c.flags.Clear(c.active.Key(), state.FlagActive)
	c.active = nil
}

// --- Event handlers ---

func (c *Controller) onMouseMove(ev engine.Event) {
	if c.modal {
		return
	}
	c.policy.HandleHover(c, ev)
}

func (c *Controller) onClick(ev engine.Event) {
	if c.closeLayerSwitcher != nil {
		c.closeLayerSwitcher()
	}
	c.policy.HandleClick(c, ev)
}

func (c *Controller) onTouchStart(ev engine.Event) {
	c.touchStarted = ev.Time
	c.touchPoint = ev.Point
}

func (c *Controller) onTouchEnd(ev engine.Event) {
	if c.touchStarted.IsZero() {
		return
	}
	held := ev.Time.Sub(c.touchStarted)
	c.touchStarted = time.Time{}
	if held >= longPressDuration {
		c.onContextMenu(engine.Event{
			Type:  engine.EventContextMenu,
			Point: c.touchPoint,
			Time:  ev.Time,
		})
	}
}

// onContextMenu resolves the target feature and builds the menu. Touch
// gestures fire both a synthesized and a native contextmenu event, so
// near-coincident events collapse to one.
func (c *Controller) onContextMenu(ev engine.Event) {
	if !c.lastContextMenu.IsZero() && ev.Time.Sub(c.lastContextMenu) <= contextMenuDebounce {
		return
	}
	c.lastContextMenu = ev.Time

	f := c.smallestAnnotatedPolygon(c.activeFeaturesAt(ev.Point))
	if f == nil {
		return
	}

	c.selectFeature(f)
	c.tooltip.Hide()

	ann := c.fm.Annotation(f.ID)
	var items []MenuItem

	if ann.HasModels() {
		items = append(items, MenuItem{
			ID:     "data",
			Prompt: "Query data",
			Action: func() { c.menuQueryData(f) },
		})
	}
	if c.layerManager.LayerQueryable(f.SourceLayer) {
		items = append(items,
			MenuItem{
				ID:     "edges",
				Prompt: "Find edges",
				Action: func() { c.menuDispatch(query.KindEdges, ann) },
			},
			MenuItem{
				ID:     "nodes",
				Prompt: "Find nodes and edges",
				Action: func() { c.menuDispatch(query.KindNodesEdges, ann) },
			},
		)
	}
	if len(items) > 0 {
		items = append(items, Separator())
	}
	items = append(items, MenuItem{
		ID:     "zoom",
		Prompt: "Zoom to '" + annotationPrompt(ann, f.ID) + "'",
		Action: func() { c.menuZoomTo(f) },
	})

	if len(items) == 0 {
		return
	}
	// Show replaces any open menu, firing the previous cycle's close
	// callback first. The modal flag is set only after that callback has
	// had its chance to clear it.
	c.menu.Show(ev.Point, items)
	c.modal = true
}

func annotationPrompt(ann *flatmap.Annotation, fallback string) string {
	if ann != nil && ann.Label != "" {
		return ann.Label
	}
	return fallback
}

// --- Menu actions ---

// queryData forwards the feature's model list to the host application.
// A feature with no models is a no-op, not a failure.
func (c *Controller) queryData(f *engine.FeatureRef) {
	models := c.fm.ModelsForFeature(f.ID)
	if len(models) == 0 {
		return
	}
	c.fm.Notify("query-data", map[string]interface{}{
		"feature": f.ID,
		"models":  models,
	})
}

func (c *Controller) menuQueryData(f *engine.FeatureRef) {
	c.queryData(f)
	c.closeMenuAction()
}

// menuDispatch sends an edges/nodes query to the external service. The busy
// cursor and in-query flag hold until the task's completion hook runs,
// whatever the outcome.
func (c *Controller) menuDispatch(kind query.Kind, ann *flatmap.Annotation) {
	if c.query != nil && ann != nil {
		task := c.query.Dispatch(query.Request{
			Kind:   kind,
			URL:    ann.URL,
			Models: ann.Models,
		})
		c.inQuery = true
		c.engine.SetCursor(engine.CursorProgress)
		task.OnDone(func(err error) {
			if err != nil {
				log.Printf("query for %s: %v", ann.ID, err)
			}
			c.inQuery = false
			c.engine.SetCursor(engine.CursorDefault)
		})
	}
	c.closeMenuAction()
}

func (c *Controller) menuZoomTo(f *engine.FeatureRef) {
	c.unhighlightFeatures()
	c.highlightFeature(f)
	c.engine.FitBounds(c.featureBounds(f), engine.FitOptions{Padding: zoomPadding, Animate: false})
	c.menu.Hide()
}

// closeMenuAction is the common tail of every dispatching menu action: hide
// the menu (the close callback clears the modal flag) and drop highlights.
func (c *Controller) closeMenuAction() {
	c.menu.Hide()
	c.unhighlightFeatures()
}

// featureBounds returns the feature's bounding box, preferring the
// annotation's precomputed box over the (possibly tile-clipped) geometry.
func (c *Controller) featureBounds(f *engine.FeatureRef) orb.Bound {
	if ann := c.fm.Annotation(f.ID); ann != nil {
		if b, ok := ann.Bound(); ok {
			return b
		}
	}
	if f.Geometry != nil {
		return f.Geometry.Bound()
	}
	return orb.Bound{}
}

// annotationBounds resolves an annotation's bounding box, falling back to
// the layer's feature geometry when no box was precomputed.
func (c *Controller) annotationBounds(ann *flatmap.Annotation) (orb.Bound, bool) {
	if b, ok := ann.Bound(); ok {
		return b, true
	}
	fc := c.fm.Features(ann.Layer)
	if fc == nil {
		return orb.Bound{}, false
	}
	for _, f := range fc.Features {
		if featureID(f.ID) == ann.ID {
			return geometry.FeatureBounds(f), true
		}
	}
	return orb.Bound{}, false
}

func featureID(id interface{}) string {
	s, _ := id.(string)
	return s
}

// --- Host-facing API ---

// GetState returns the current camera and layer state.
func (c *Controller) GetState() ViewState {
	center := c.engine.Center()
	zoom := c.engine.Zoom()
	return ViewState{
		Center: &center,
		Zoom:   &zoom,
		Layers: c.layerManager.ActiveLayerNames(),
	}
}

// SetState applies a partial camera state: either or both of center and zoom.
func (c *Controller) SetState(s ViewState) {
	if s.Center == nil && s.Zoom == nil {
		return
	}
	c.engine.JumpTo(engine.View{Center: s.Center, Zoom: s.Zoom})
}

// ActivateLayer activates the named layers.
func (c *Controller) ActivateLayer(names ...string) {
	for _, name := range names {
		c.layerManager.Activate(name)
	}
}

// DeactivateLayer deactivates the named layers.
func (c *Controller) DeactivateLayer(names ...string) {
	for _, name := range names {
		c.layerManager.Deactivate(name)
	}
}

// ActiveLayerNames returns the active layer names in registration order.
func (c *Controller) ActiveLayerNames() []string {
	return c.layerManager.ActiveLayerNames()
}

// ActiveLayerIDs returns the engine layer ids of the active layers.
func (c *Controller) ActiveLayerIDs() []string {
	names := c.layerManager.ActiveLayerNames()
	ids := make([]string, len(names))
	for i, name := range names {
		ids[i] = c.fm.MapLayerID(name)
	}
	return ids
}

// SelectedFeatureLayerName returns the selected feature's layer, or "".
func (c *Controller) SelectedFeatureLayerName() string {
	if c.selected == nil {
		return ""
	}
	return c.selected.SourceLayer
}

// ZoomToFeatures highlights the given features and fits the camera to the
// union of their bounding boxes. No-op if none resolve.
func (c *Controller) ZoomToFeatures(ids []string, padding ...int) {
	c.unhighlightFeatures()

	var merged orb.Bound
	found := false
	for _, id := range ids {
		ann := c.fm.Annotation(id)
		if ann == nil {
			continue
		}
		b, ok := c.annotationBounds(ann)
		if !ok {
			continue
		}
		c.highlightFeature(&engine.FeatureRef{SourceLayer: ann.Layer, ID: id})
		if !found {
			merged = b
			found = true
		} else {
			merged = geometry.MergeBounds(merged, b)
		}
	}
	if !found {
		return
	}

	pad := zoomPadding
	if len(padding) > 0 {
		pad = padding[0]
	}
	c.engine.FitBounds(merged, engine.FitOptions{Padding: pad, Animate: false})
}

// ClearResults drops all highlights and any visible tooltip.
func (c *Controller) ClearResults() {
	c.unhighlightFeatures()
	c.tooltip.Hide()
}

// ShowPopup shows content anchored to a feature: at the last clicked
// location when one exists, else at the feature's centroid. The camera pans
// only when the anchor is outside the current viewport. Unknown features
// are a no-op.
func (c *Controller) ShowPopup(featureID string, content Content, opts PopupOptions) {
	ann := c.fm.Annotation(featureID)
	if ann == nil {
		return
	}

	c.tooltip.Remove()
	c.unhighlightFeatures()
	c.highlightFeature(&engine.FeatureRef{SourceLayer: ann.Layer, ID: featureID})

	var anchor orb.Point
	switch {
	case opts.Anchor != nil:
		anchor = *opts.Anchor
	case c.lastClick != nil:
		anchor = *c.lastClick
	default:
		b, ok := c.annotationBounds(ann)
		if !ok {
			b = c.engine.Bounds()
		}
		anchor = geometry.Center(b)
	}

	if !c.engine.Bounds().Contains(anchor) {
		c.engine.PanTo(anchor)
	}
	c.tooltip.Show(anchor, content)
}
