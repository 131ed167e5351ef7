package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"flatmap-viewer/internal/engine"
	"flatmap-viewer/internal/flatmap"
	"flatmap-viewer/internal/layers"
	"flatmap-viewer/internal/query"
	"flatmap-viewer/internal/state"
)

// --- Fakes ---

type fitCall struct {
	bound orb.Bound
	opts  engine.FitOptions
}

type fakeEngine struct {
	refs    []*engine.FeatureRef
	fits    []fitCall
	cursor  engine.Cursor
	cursors []engine.Cursor
	center  orb.Point
	zoom    float64
	bounds  orb.Bound
	panned  []orb.Point
	jumps   []engine.View
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		zoom:   4,
		bounds: orb.Bound{Min: orb.Point{-1e6, -1e6}, Max: orb.Point{1e6, 1e6}},
	}
}

func (e *fakeEngine) QueryRenderedFeatures(at *orb.Point) []*engine.FeatureRef {
	return e.refs
}

func (e *fakeEngine) FitBounds(b orb.Bound, opts engine.FitOptions) {
	e.fits = append(e.fits, fitCall{bound: b, opts: opts})
}

func (e *fakeEngine) PanTo(p orb.Point) { e.panned = append(e.panned, p) }
func (e *fakeEngine) Bounds() orb.Bound { return e.bounds }
func (e *fakeEngine) JumpTo(v engine.View) {
	e.jumps = append(e.jumps, v)
	if v.Center != nil {
		e.center = *v.Center
	}
	if v.Zoom != nil {
		e.zoom = *v.Zoom
	}
}
func (e *fakeEngine) Center() orb.Point { return e.center }
func (e *fakeEngine) Zoom() float64     { return e.zoom }
func (e *fakeEngine) SetCursor(c engine.Cursor) {
	e.cursor = c
	e.cursors = append(e.cursors, c)
}

type fakeSource struct {
	handlers map[engine.EventType][]func(engine.Event)
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: make(map[engine.EventType][]func(engine.Event))}
}

func (s *fakeSource) On(t engine.EventType, h func(engine.Event)) {
	s.handlers[t] = append(s.handlers[t], h)
}

func (s *fakeSource) fire(t engine.EventType, at orb.Point, when time.Time) {
	for _, h := range s.handlers[t] {
		h(engine.Event{Type: t, Point: at, Time: when})
	}
}

type fakeTooltip struct {
	visible bool
	last    Content
	shows   int
	hides   int
	removes int
}

func (f *fakeTooltip) Show(at orb.Point, content Content) {
	f.visible = true
	f.last = content
	f.shows++
}
func (f *fakeTooltip) Hide()   { f.visible = false; f.hides++ }
func (f *fakeTooltip) Remove() { f.visible = false; f.removes++ }

type fakeMenu struct {
	open    bool
	shows   int
	items   []MenuItem
	closeFn func()
}

// Show replaces any open menu, closing it first. Matches the fyne
// presenter's contract.
func (m *fakeMenu) Show(at orb.Point, items []MenuItem) {
	m.Hide()
	m.open = true
	m.shows++
	m.items = items
}

func (m *fakeMenu) Hide() {
	if !m.open {
		return
	}
	m.open = false
	if m.closeFn != nil {
		m.closeFn()
	}
}

func (m *fakeMenu) OnClose(fn func()) { m.closeFn = fn }

// dismiss simulates a user close (outside click, Escape).
func (m *fakeMenu) dismiss() { m.Hide() }

// --- Fixture ---

// Two overlapping annotated tissue polygons: "big" (area 100) contains
// "small" (area 40). "plain" sits on the non-queryable grid layer with no
// models. f1/f3 exist only as annotations with precomputed bounds.
func testMap() *flatmap.FlatMap {
	descriptors := []layers.Descriptor{
		{ID: "outline", BackgroundFor: "tissue"},
		{ID: "tissue"},
		{ID: "grid", NoSelect: true},
	}
	annotations := map[string]*flatmap.Annotation{
		"big":   {Label: "Body proper", Models: []string{"UBERON:0013702"}, Layer: "tissue"},
		"small": {Label: "Stomach", Models: []string{"UBERON:0000945"}, Layer: "tissue"},
		"plain": {Label: "Grid cell", Layer: "grid"},
		"f1":    {Label: "Lung", Layer: "tissue", BBox: []float64{0, 0, 10, 10}},
		"f3":    {Label: "Liver", Layer: "tissue", BBox: []float64{5, 5, 20, 20}},
	}
	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1000, 800}}
	return flatmap.New("test-map", "NCBITaxon:10114", flatmap.Options{Tooltips: true},
		extent, descriptors, annotations)
}

func polygonRef(sourceLayer, id string, poly orb.Polygon) *engine.FeatureRef {
	return &engine.FeatureRef{
		LayerID:     "test-map/" + sourceLayer,
		SourceLayer: sourceLayer,
		ID:          id,
		Geometry:    poly,
		Properties:  map[string]interface{}{"label": id},
	}
}

func bigSmallRefs() []*engine.FeatureRef {
	big := polygonRef("tissue", "big",
		orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}) // area 100
	small := polygonRef("tissue", "small",
		orb.Polygon{{{1, 1}, {9, 1}, {9, 6}, {1, 6}, {1, 1}}}) // area 40
	return []*engine.FeatureRef{big, small}
}

type fixture struct {
	c     *Controller
	eng   *fakeEngine
	src   *fakeSource
	tip   *fakeTooltip
	menu  *fakeMenu
	flags *state.FlagStore
	fm    *flatmap.FlatMap
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	f := &fixture{
		eng:   newFakeEngine(),
		src:   newFakeSource(),
		tip:   &fakeTooltip{},
		menu:  &fakeMenu{},
		flags: state.NewFlagStore(),
		fm:    testMap(),
	}
	f.c = New(Config{
		Engine:  f.eng,
		Events:  f.src,
		Map:     f.fm,
		Flags:   f.flags,
		Tooltip: f.tip,
		Menu:    f.menu,
		Policy:  policy,
	})
	return f
}

func key(layer, id string) state.Key {
	return state.Key{SourceLayer: layer, FeatureID: id}
}

// --- Startup ---

func TestStartupSequence(t *testing.T) {
	loaded := 0
	f := &fixture{
		eng:   newFakeEngine(),
		src:   newFakeSource(),
		tip:   &fakeTooltip{},
		menu:  &fakeMenu{},
		flags: state.NewFlagStore(),
		fm:    testMap(),
	}
	f.c = New(Config{
		Engine:   f.eng,
		Events:   f.src,
		Map:      f.fm,
		Flags:    f.flags,
		Tooltip:  f.tip,
		Menu:     f.menu,
		OnLoaded: func() { loaded++ },
	})

	if loaded != 1 {
		t.Errorf("loaded callback fired %d times, want exactly 1", loaded)
	}

	// Map positioned to its extent, without animation.
	if len(f.eng.fits) != 1 || f.eng.fits[0].bound != f.fm.Extent() || f.eng.fits[0].opts.Animate {
		t.Errorf("startup fit = %+v", f.eng.fits)
	}

	// Background layers never reach the selectable registry.
	names := f.c.ActiveLayerNames()
	for _, n := range names {
		if n == "outline" {
			t.Error("background layer registered as selectable")
		}
	}
	if len(names) != 2 {
		t.Errorf("active layers = %v", names)
	}

	// Annotation flags exist before any event handler can run.
	for _, id := range []string{"big", "small", "f1", "f3"} {
		if !f.flags.Has(key("tissue", id), state.FlagAnnotated) {
			t.Errorf("feature %s not flagged annotated at startup", id)
		}
	}
	if !f.flags.Has(key("grid", "plain"), state.FlagAnnotated) {
		t.Error("grid feature not flagged annotated")
	}
}

// --- Selection exclusivity (property 1) ---

func TestSelectionExclusivity(t *testing.T) {
	f := newFixture(t, nil)
	refs := bigSmallRefs()

	f.c.selectFeature(refs[0])
	f.c.selectFeature(refs[1])
	f.c.selectFeature(refs[0])

	if !f.flags.Has(key("tissue", "big"), state.FlagSelected) {
		t.Error("most recently selected feature must hold the flag")
	}
	if f.flags.Has(key("tissue", "small"), state.FlagSelected) {
		t.Error("previous selection flag leaked")
	}
	if got := len(f.flags.KeysWith(state.FlagSelected)); got != 1 {
		t.Errorf("%d features flagged selected, want 1", got)
	}

	f.c.unselectFeature()
	if len(f.flags.KeysWith(state.FlagSelected)) != 0 {
		t.Error("unselect left a selected flag behind")
	}
	if f.c.SelectedFeatureLayerName() != "" {
		t.Error("SelectedFeatureLayerName after unselect")
	}
}

// --- Highlight set integrity (property 2) ---

func TestHighlightClearIsTotal(t *testing.T) {
	f := newFixture(t, nil)
	refs := bigSmallRefs()

	f.c.highlightFeature(refs[0])
	f.c.highlightFeature(refs[1])
	f.c.highlightFeature(refs[0]) // duplicate, must not double-track

	if got := len(f.flags.KeysWith(state.FlagHighlighted)); got != 2 {
		t.Fatalf("%d highlighted, want 2", got)
	}

	f.c.unhighlightFeatures()
	if len(f.flags.KeysWith(state.FlagHighlighted)) != 0 {
		t.Error("flags remain after unhighlightFeatures")
	}
	if len(f.c.highlighted) != 0 {
		t.Error("tracked set not empty after unhighlightFeatures")
	}
}

// --- Hover end-to-end (property 7) ---

func TestHoverResolvesSmallestAnnotatedPolygon(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	f.src.fire(engine.EventMouseMove, orb.Point{5, 5}, time.Now())

	if !f.flags.Has(key("tissue", "small"), state.FlagSelected) {
		t.Error("smallest polygon was not selected")
	}
	if f.flags.Has(key("tissue", "big"), state.FlagSelected) {
		t.Error("larger polygon selected")
	}
	if !f.tip.visible || f.tip.last.Text != "Stomach" {
		t.Errorf("tooltip = %+v, want visible with label Stomach", f.tip.last)
	}
	if f.eng.cursor != engine.CursorPointer {
		t.Errorf("cursor = %q, want pointer", f.eng.cursor)
	}
}

func TestHoverMissClearsState(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()
	f.src.fire(engine.EventMouseMove, orb.Point{5, 5}, time.Now())

	f.eng.refs = nil
	f.src.fire(engine.EventMouseMove, orb.Point{500, 500}, time.Now())

	if f.tip.visible {
		t.Error("tooltip still visible after hover miss")
	}
	if len(f.flags.KeysWith(state.FlagSelected)) != 0 {
		t.Error("selection survived hover miss")
	}
	if f.eng.cursor != engine.CursorNone {
		t.Errorf("cursor = %q, want cleared", f.eng.cursor)
	}
}

func TestHoverMissKeepsBusyCursorDuringQuery(t *testing.T) {
	f := newFixture(t, nil)
	f.c.inQuery = true
	f.eng.SetCursor(engine.CursorProgress)

	f.eng.refs = nil
	f.src.fire(engine.EventMouseMove, orb.Point{500, 500}, time.Now())

	if f.eng.cursor != engine.CursorProgress {
		t.Errorf("cursor = %q, busy cursor must survive hover misses", f.eng.cursor)
	}
}

// --- Modal suspension (property 5) ---

func TestModalSuspendsHover(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	base := time.Now()
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base)
	if !f.menu.open || !f.c.modal {
		t.Fatal("context menu did not open")
	}

	tipShows := f.tip.shows
	cursorChanges := len(f.eng.cursors)
	selectedBefore := f.c.selected

	f.src.fire(engine.EventMouseMove, orb.Point{2, 2}, base.Add(time.Second))

	if f.tip.shows != tipShows {
		t.Error("tooltip changed while modal")
	}
	if len(f.eng.cursors) != cursorChanges {
		t.Error("cursor changed while modal")
	}
	if f.c.selected != selectedBefore {
		t.Error("selection changed while modal")
	}

	// Closing the menu clears the modal flag via the close callback.
	f.menu.dismiss()
	if f.c.modal {
		t.Error("modal flag not cleared on menu close")
	}
	f.src.fire(engine.EventMouseMove, orb.Point{5, 5}, base.Add(2*time.Second))
	if f.tip.shows == tipShows {
		t.Error("hover still suspended after menu closed")
	}
}

// A second contextmenu event replaces the open menu. The replacement runs
// the old cycle's close callback inside Show, which must not strand the new
// menu with hover processing re-enabled.
func TestReplacedMenuStaysModal(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	base := time.Now()
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base)
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base.Add(200*time.Millisecond))

	if f.menu.shows != 2 {
		t.Fatalf("menu shown %d times, want 2", f.menu.shows)
	}
	if !f.menu.open || !f.c.modal {
		t.Fatalf("open=%v modal=%v, replacing a menu must leave the controller modal",
			f.menu.open, f.c.modal)
	}

	tipShows := f.tip.shows
	f.src.fire(engine.EventMouseMove, orb.Point{2, 2}, base.Add(time.Second))
	if f.tip.shows != tipShows {
		t.Error("hover processing resumed under an open menu")
	}
}

// --- Context-menu debounce (property 6) ---

func TestContextMenuDebounce(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	base := time.Now()
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base)
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base.Add(99*time.Millisecond))
	if f.menu.shows != 1 {
		t.Errorf("menu shown %d times for events 99ms apart, want 1", f.menu.shows)
	}

	f.menu.dismiss()
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, base.Add(99*time.Millisecond+101*time.Millisecond))
	if f.menu.shows != 2 {
		t.Errorf("menu shown %d times after 101ms gap, want 2", f.menu.shows)
	}
}

// --- Context-menu construction (property 9) ---

func TestContextMenuItems(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, time.Now())

	// "small" has models and sits on a queryable layer:
	// data, edges, nodes, separator, zoom.
	var ids []string
	separators := 0
	for _, it := range f.menu.items {
		if it.Separator {
			separators++
			continue
		}
		ids = append(ids, it.ID)
	}
	want := []string{"data", "edges", "nodes", "zoom"}
	if len(ids) != len(want) {
		t.Fatalf("menu items = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("menu items = %v, want %v", ids, want)
		}
	}
	if separators != 1 {
		t.Errorf("%d separators, want 1", separators)
	}
	if f.tip.hides == 0 {
		t.Error("tooltip not hidden before menu")
	}
}

func TestContextMenuZoomOnlyEntry(t *testing.T) {
	f := newFixture(t, nil)
	// "plain": annotated, no models, non-queryable grid layer.
	f.eng.refs = []*engine.FeatureRef{
		polygonRef("grid", "plain", orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}),
	}

	f.src.fire(engine.EventContextMenu, orb.Point{1, 1}, time.Now())

	if f.menu.shows != 1 {
		t.Fatal("menu not shown")
	}
	if len(f.menu.items) != 1 {
		t.Fatalf("menu items = %d, want only the zoom entry", len(f.menu.items))
	}
	item := f.menu.items[0]
	if item.Separator || item.ID != "zoom" {
		t.Errorf("sole entry = %+v, want zoom item with no separator", item)
	}
}

func TestContextMenuNoFeatureNoMenu(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = nil

	f.src.fire(engine.EventContextMenu, orb.Point{1, 1}, time.Now())

	if f.menu.shows != 0 {
		t.Error("menu shown with no feature under pointer")
	}
	if f.c.modal {
		t.Error("modal entered with no menu")
	}
}

// --- Long-press ---

func TestLongPressSynthesizesContextMenu(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	base := time.Now()
	f.src.fire(engine.EventTouchStart, orb.Point{5, 5}, base)
	f.src.fire(engine.EventTouchEnd, orb.Point{5, 5}, base.Add(600*time.Millisecond))
	if f.menu.shows != 1 {
		t.Errorf("long press did not open menu (shows=%d)", f.menu.shows)
	}

	f.menu.dismiss()
	f.src.fire(engine.EventTouchStart, orb.Point{5, 5}, base.Add(2*time.Second))
	f.src.fire(engine.EventTouchEnd, orb.Point{5, 5}, base.Add(2*time.Second+200*time.Millisecond))
	if f.menu.shows != 1 {
		t.Error("short tap must not open menu")
	}
}

// --- Zoom to features (property 8) ---

func TestZoomToFeatures(t *testing.T) {
	f := newFixture(t, nil)
	startupFits := len(f.eng.fits)

	f.c.ZoomToFeatures([]string{"f1", "f3"})

	highlighted := f.flags.KeysWith(state.FlagHighlighted)
	if len(highlighted) != 2 {
		t.Fatalf("highlighted = %v, want exactly f1 and f3", highlighted)
	}
	seen := map[string]bool{}
	for _, k := range highlighted {
		seen[k.FeatureID] = true
	}
	if !seen["f1"] || !seen["f3"] {
		t.Errorf("highlighted = %v", highlighted)
	}

	if len(f.eng.fits) != startupFits+1 {
		t.Fatalf("fit calls = %d", len(f.eng.fits))
	}
	fit := f.eng.fits[len(f.eng.fits)-1]
	want := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 20}}
	if fit.bound != want {
		t.Errorf("fit bound = %v, want %v", fit.bound, want)
	}
	if fit.opts.Padding != zoomPadding {
		t.Errorf("padding = %d, want default %d", fit.opts.Padding, zoomPadding)
	}
}

func TestZoomToFeaturesCustomPaddingAndMisses(t *testing.T) {
	f := newFixture(t, nil)
	startupFits := len(f.eng.fits)

	f.c.ZoomToFeatures([]string{"f1", "unknown"}, 25)
	fit := f.eng.fits[len(f.eng.fits)-1]
	if fit.opts.Padding != 25 {
		t.Errorf("padding = %d, want 25", fit.opts.Padding)
	}

	// Replaces, never accumulates, the highlight set.
	if len(f.flags.KeysWith(state.FlagHighlighted)) != 1 {
		t.Error("unknown ids must not highlight")
	}

	f.c.ZoomToFeatures(nil)
	if len(f.eng.fits) != startupFits+1 {
		t.Error("empty id set must not move the camera")
	}
	if len(f.flags.KeysWith(state.FlagHighlighted)) != 0 {
		t.Error("empty id set must clear highlights")
	}
}

// --- Menu zoom action ---

func TestMenuZoomAction(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()
	startupFits := len(f.eng.fits)

	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, time.Now())
	var zoom MenuItem
	for _, it := range f.menu.items {
		if it.ID == "zoom" {
			zoom = it
		}
	}
	if zoom.Action == nil {
		t.Fatal("no zoom item")
	}
	zoom.Action()

	if len(f.eng.fits) != startupFits+1 {
		t.Fatal("zoom action did not frame the feature")
	}
	fit := f.eng.fits[len(f.eng.fits)-1]
	want := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{9, 6}}
	if fit.bound != want || fit.opts.Animate {
		t.Errorf("fit = %+v, want %v without animation", fit, want)
	}
	if !f.flags.Has(key("tissue", "small"), state.FlagHighlighted) {
		t.Error("zoomed feature not highlighted")
	}
	if f.menu.open || f.c.modal {
		t.Error("menu/modal not cleared after zoom action")
	}
}

// --- Query-data action and click ---

func TestClickDispatchesQueryData(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.refs = bigSmallRefs()

	var events []string
	var models []string
	f.fm.SetCallback(func(event string, payload map[string]interface{}) {
		events = append(events, event)
		if m, ok := payload["models"].([]string); ok {
			models = m
		}
	})

	f.src.fire(engine.EventClick, orb.Point{5, 5}, time.Now())

	if len(events) != 1 || events[0] != "query-data" {
		t.Fatalf("events = %v", events)
	}
	if len(models) != 1 || models[0] != "UBERON:0000945" {
		t.Errorf("models = %v", models)
	}
	if !f.flags.Has(key("tissue", "small"), state.FlagSelected) {
		t.Error("click did not select the feature")
	}
	if len(f.flags.KeysWith(state.FlagHighlighted)) != 0 {
		t.Error("click must clear highlights")
	}
}

func TestQueryDataNoModelsIsNoop(t *testing.T) {
	f := newFixture(t, nil)

	var events []string
	f.fm.SetCallback(func(event string, payload map[string]interface{}) {
		events = append(events, event)
	})

	f.c.queryData(&engine.FeatureRef{SourceLayer: "grid", ID: "plain"})
	if len(events) != 0 {
		t.Errorf("empty model list dispatched: %v", events)
	}
}

// The busy state is written by the completion hook; with Defer set it must
// stay untouched until the deferred function runs on the event loop.
func TestMenuDispatchClearsBusyStateViaDefer(t *testing.T) {
	f := newFixture(t, nil)

	release := make(chan struct{})
	svc := query.NewService(func(ctx context.Context, req query.Request) error {
		<-release
		return nil
	})
	deferred := make(chan func(), 1)
	svc.Defer = func(fn func()) { deferred <- fn }
	f.c.query = svc

	f.eng.refs = bigSmallRefs()
	f.src.fire(engine.EventContextMenu, orb.Point{5, 5}, time.Now())
	var edges MenuItem
	for _, it := range f.menu.items {
		if it.ID == "edges" {
			edges = it
		}
	}
	if edges.Action == nil {
		t.Fatal("no edges menu item")
	}
	edges.Action()

	if !f.c.inQuery || f.eng.cursor != engine.CursorProgress {
		t.Fatalf("inQuery=%v cursor=%q, dispatch did not enter the busy state",
			f.c.inQuery, f.eng.cursor)
	}

	close(release)
	var fn func()
	select {
	case fn = <-deferred:
	case <-time.After(2 * time.Second):
		t.Fatal("completion never reached the deferred hook")
	}
	if !f.c.inQuery {
		t.Fatal("busy state cleared before the deferred hook ran")
	}
	fn()
	if f.c.inQuery {
		t.Error("deferred hook did not clear the busy state")
	}
	if f.eng.cursor != engine.CursorDefault {
		t.Errorf("cursor = %q, want default after completion", f.eng.cursor)
	}
}

// --- ShowPopup ---

func TestShowPopup(t *testing.T) {
	f := newFixture(t, nil)

	f.c.ShowPopup("f1", TextContent("Lung details"), PopupOptions{})

	if !f.tip.visible || f.tip.last.Text != "Lung details" {
		t.Errorf("popup = %+v", f.tip.last)
	}
	highlighted := f.flags.KeysWith(state.FlagHighlighted)
	if len(highlighted) != 1 || highlighted[0].FeatureID != "f1" {
		t.Errorf("highlighted = %v, want only f1", highlighted)
	}
	if len(f.eng.panned) != 0 {
		t.Error("anchor inside viewport must not pan")
	}
}

func TestShowPopupPansWhenOutsideViewport(t *testing.T) {
	f := newFixture(t, nil)
	f.eng.bounds = orb.Bound{Min: orb.Point{100, 100}, Max: orb.Point{200, 200}}

	// f1's centroid (5,5) is outside the viewport.
	f.c.ShowPopup("f1", TextContent("x"), PopupOptions{})

	if len(f.eng.panned) != 1 || f.eng.panned[0] != (orb.Point{5, 5}) {
		t.Errorf("panned = %v, want [(5,5)]", f.eng.panned)
	}
}

func TestShowPopupUnknownFeature(t *testing.T) {
	f := newFixture(t, nil)
	f.c.ShowPopup("nope", TextContent("x"), PopupOptions{})
	if f.tip.visible {
		t.Error("popup shown for unknown feature")
	}
}

// --- View state and layers ---

func TestGetSetState(t *testing.T) {
	f := newFixture(t, nil)

	s := f.c.GetState()
	if s.Center == nil || s.Zoom == nil || len(s.Layers) != 2 {
		t.Fatalf("GetState() = %+v", s)
	}

	zoom := 2.5
	f.c.SetState(ViewState{Zoom: &zoom})
	if f.eng.zoom != 2.5 {
		t.Errorf("zoom = %v after partial SetState", f.eng.zoom)
	}
	if len(f.eng.jumps) != 1 || f.eng.jumps[0].Center != nil {
		t.Errorf("jumps = %+v, center must stay unset", f.eng.jumps)
	}

	// Neither field set: no camera call at all.
	f.c.SetState(ViewState{})
	if len(f.eng.jumps) != 1 {
		t.Error("empty SetState must not touch the camera")
	}
}

func TestLayerAPI(t *testing.T) {
	f := newFixture(t, nil)

	f.c.DeactivateLayer("tissue")
	if names := f.c.ActiveLayerNames(); len(names) != 1 || names[0] != "grid" {
		t.Errorf("active = %v", names)
	}

	f.c.ActivateLayer("tissue")
	ids := f.c.ActiveLayerIDs()
	if len(ids) != 2 || ids[0] != "test-map/tissue" {
		t.Errorf("ActiveLayerIDs() = %v", ids)
	}
}

func TestClearResults(t *testing.T) {
	f := newFixture(t, nil)
	f.c.ZoomToFeatures([]string{"f1", "f3"})
	f.tip.visible = true

	f.c.ClearResults()

	if len(f.flags.KeysWith(state.FlagHighlighted)) != 0 {
		t.Error("highlights survive ClearResults")
	}
	if f.tip.visible {
		t.Error("tooltip survives ClearResults")
	}
}
