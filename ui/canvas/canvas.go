// Package canvas provides the map canvas: a software-rendered view of a
// flatmap's GeoJSON layers with pan, zoom, hit-testing, and pointer events.
package canvas

import (
	"image"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"flatmap-viewer/internal/engine"
	"flatmap-viewer/internal/flatmap"
	"flatmap-viewer/internal/state"
)

const (
	minZoom  = 0.01
	maxZoom  = 256.0
	zoomStep = 1.25

	// Pick tolerance for point and line features, in screen pixels.
	pickRadiusPx = 6.0
)

// MapCanvas renders a flatmap and feeds pointer events to the interaction
// controller. It implements both sides of the controller's world: the map
// engine (camera, hit-testing, cursor) and the event source.
type MapCanvas struct {
	widget.BaseWidget

	fm    *flatmap.FlatMap
	flags *state.FlagStore

	raster *fynecanvas.Raster

	// Visible layer names, bottom to top.
	visible []string

	// Camera: world point at the viewport center, and pixels per world unit.
	center orb.Point
	zoom   float64

	cursor engine.Cursor

	// Last drawn viewport size in pixels.
	viewW, viewH int

	dragging bool

	handlers map[engine.EventType][]func(engine.Event)

	onViewChange func()
}

var (
	_ engine.MapEngine       = (*MapCanvas)(nil)
	_ engine.EventSource     = (*MapCanvas)(nil)
	_ fyne.Widget            = (*MapCanvas)(nil)
	_ fyne.Tappable          = (*MapCanvas)(nil)
	_ fyne.SecondaryTappable = (*MapCanvas)(nil)
	_ fyne.Draggable         = (*MapCanvas)(nil)
	_ fyne.Scrollable        = (*MapCanvas)(nil)
	_ desktop.Hoverable      = (*MapCanvas)(nil)
	_ desktop.Cursorable     = (*MapCanvas)(nil)
	_ mobile.Touchable       = (*MapCanvas)(nil)
)

// NewMapCanvas creates a map canvas. Flag changes trigger a repaint, so
// selection and highlighting need no explicit refresh calls.
func NewMapCanvas(fm *flatmap.FlatMap, flags *state.FlagStore) *MapCanvas {
	mc := &MapCanvas{
		fm:       fm,
		flags:    flags,
		zoom:     1.0,
		handlers: make(map[engine.EventType][]func(engine.Event)),
	}
	mc.center = mc.fm.Extent().Center()

	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.raster.SetMinSize(fyne.NewSize(400, 300))

	flags.OnChange(func(state.Key, state.Flag, bool) {
		mc.Refresh()
	})

	mc.ExtendBaseWidget(mc)
	return mc
}

// SetVisibleLayers sets the layer names to render, bottom to top.
func (mc *MapCanvas) SetVisibleLayers(names []string) {
	mc.visible = names
	mc.Refresh()
}

// OnViewChange sets a callback invoked after any camera movement.
func (mc *MapCanvas) OnViewChange(callback func()) {
	mc.onViewChange = callback
}

// --- Camera ---

func (mc *MapCanvas) viewChanged() {
	mc.Refresh()
	if mc.onViewChange != nil {
		mc.onViewChange()
	}
}

func clampZoom(z float64) float64 {
	if z < minZoom {
		return minZoom
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}

// FitBounds positions the camera so the bound fills the viewport, inset by
// the padding in pixels.
func (mc *MapCanvas) FitBounds(b orb.Bound, opts engine.FitOptions) {
	w, h := mc.viewW, mc.viewH
	if w == 0 || h == 0 {
		// Not laid out yet; a sensible default viewport keeps the math sound.
		w, h = 800, 600
	}

	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	if dx <= 0 || dy <= 0 {
		mc.center = b.Center()
		mc.viewChanged()
		return
	}

	availW := float64(w) - 2*float64(opts.Padding)
	availH := float64(h) - 2*float64(opts.Padding)
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}

	zoomX := availW / dx
	zoomY := availH / dy
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	mc.zoom = clampZoom(zoom)
	mc.center = b.Center()
	mc.viewChanged()
}

// PanTo centers the camera on a world point without changing zoom.
func (mc *MapCanvas) PanTo(p orb.Point) {
	mc.center = p
	mc.viewChanged()
}

// JumpTo applies a partial camera state.
func (mc *MapCanvas) JumpTo(v engine.View) {
	if v.Center != nil {
		mc.center = *v.Center
	}
	if v.Zoom != nil {
		mc.zoom = clampZoom(*v.Zoom)
	}
	mc.viewChanged()
}

// Center returns the world point at the viewport center.
func (mc *MapCanvas) Center() orb.Point { return mc.center }

// Zoom returns the current zoom in pixels per world unit.
func (mc *MapCanvas) Zoom() float64 { return mc.zoom }

// Bounds returns the world rectangle currently visible.
func (mc *MapCanvas) Bounds() orb.Bound {
	w, h := mc.viewW, mc.viewH
	if w == 0 || h == 0 {
		w, h = 800, 600
	}
	halfW := float64(w) / 2 / mc.zoom
	halfH := float64(h) / 2 / mc.zoom
	return orb.Bound{
		Min: orb.Point{mc.center[0] - halfW, mc.center[1] - halfH},
		Max: orb.Point{mc.center[0] + halfW, mc.center[1] + halfH},
	}
}

// ZoomIn increases the zoom level around the viewport center.
func (mc *MapCanvas) ZoomIn() {
	mc.zoom = clampZoom(mc.zoom * zoomStep)
	mc.viewChanged()
}

// ZoomOut decreases the zoom level around the viewport center.
func (mc *MapCanvas) ZoomOut() {
	mc.zoom = clampZoom(mc.zoom / zoomStep)
	mc.viewChanged()
}

// --- Coordinate transforms ---

// WorldToScreen converts a world point to viewport pixels.
func (mc *MapCanvas) WorldToScreen(p orb.Point) fyne.Position {
	x := (p[0]-mc.center[0])*mc.zoom + float64(mc.viewW)/2
	y := (p[1]-mc.center[1])*mc.zoom + float64(mc.viewH)/2
	return fyne.NewPos(float32(x), float32(y))
}

// ScreenToWorld converts viewport pixels to a world point.
func (mc *MapCanvas) ScreenToWorld(pos fyne.Position) orb.Point {
	return orb.Point{
		(float64(pos.X)-float64(mc.viewW)/2)/mc.zoom + mc.center[0],
		(float64(pos.Y)-float64(mc.viewH)/2)/mc.zoom + mc.center[1],
	}
}

// --- Hit testing ---

// QueryRenderedFeatures returns the features under a world point, topmost
// first. Polygons hit by containment, points and lines by distance within
// the pick tolerance.
func (mc *MapCanvas) QueryRenderedFeatures(at *orb.Point) []*engine.FeatureRef {
	if at == nil {
		return nil
	}
	tolerance := pickRadiusPx / mc.zoom

	var hits []*engine.FeatureRef
	for i := len(mc.visible) - 1; i >= 0; i-- {
		name := mc.visible[i]
		fc := mc.fm.Features(name)
		if fc == nil {
			continue
		}
		for j := len(fc.Features) - 1; j >= 0; j-- {
			f := fc.Features[j]
			if f.Geometry == nil || !geometryHit(f.Geometry, *at, tolerance) {
				continue
			}
			id, _ := f.ID.(string)
			hits = append(hits, &engine.FeatureRef{
				LayerID:     mc.fm.MapLayerID(name),
				SourceLayer: name,
				ID:          id,
				Geometry:    f.Geometry,
				Properties:  f.Properties,
			})
		}
	}
	return hits
}

func geometryHit(g orb.Geometry, at orb.Point, tolerance float64) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, at)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, at)
	default:
		return planar.DistanceFrom(g, at) <= tolerance
	}
}

// --- Cursor ---

// SetCursor sets the pointer cursor style.
func (mc *MapCanvas) SetCursor(c engine.Cursor) {
	if mc.cursor == c {
		return
	}
	mc.cursor = c
	mc.Refresh()
}

// Cursor implements desktop.Cursorable.
func (mc *MapCanvas) Cursor() desktop.Cursor {
	switch mc.cursor {
	case engine.CursorPointer:
		return desktop.PointerCursor
	case engine.CursorProgress:
		// Fyne has no busy cursor; the crosshair is the visible stand-in.
		return desktop.CrosshairCursor
	default:
		return desktop.DefaultCursor
	}
}

// --- Event source ---

// On registers a handler for an event type. Handlers run on the fyne event
// goroutine, never concurrently.
func (mc *MapCanvas) On(t engine.EventType, handler func(engine.Event)) {
	mc.handlers[t] = append(mc.handlers[t], handler)
}

func (mc *MapCanvas) emit(t engine.EventType, pos fyne.Position) {
	ev := engine.Event{
		Type:  t,
		Point: mc.ScreenToWorld(pos),
		Time:  time.Now(),
	}
	for _, h := range mc.handlers[t] {
		h(ev)
	}
}

// MouseIn implements desktop.Hoverable.
func (mc *MapCanvas) MouseIn(ev *desktop.MouseEvent) {
	mc.emit(engine.EventMouseMove, ev.Position)
}

// MouseMoved implements desktop.Hoverable.
func (mc *MapCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if mc.dragging {
		return
	}
	mc.emit(engine.EventMouseMove, ev.Position)
}

// MouseOut implements desktop.Hoverable.
func (mc *MapCanvas) MouseOut() {}

// Tapped handles left-click events.
func (mc *MapCanvas) Tapped(ev *fyne.PointEvent) {
	size := mc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	mc.emit(engine.EventClick, ev.Position)
}

// TappedSecondary handles right-click events.
func (mc *MapCanvas) TappedSecondary(ev *fyne.PointEvent) {
	size := mc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	mc.emit(engine.EventContextMenu, ev.Position)
}

// TouchDown implements mobile.Touchable.
func (mc *MapCanvas) TouchDown(ev *mobile.TouchEvent) {
	mc.emit(engine.EventTouchStart, ev.Position)
}

// TouchUp implements mobile.Touchable.
func (mc *MapCanvas) TouchUp(ev *mobile.TouchEvent) {
	mc.emit(engine.EventTouchEnd, ev.Position)
}

// TouchCancel implements mobile.Touchable.
func (mc *MapCanvas) TouchCancel(ev *mobile.TouchEvent) {}

// Dragged pans the camera.
func (mc *MapCanvas) Dragged(ev *fyne.DragEvent) {
	mc.dragging = true
	mc.center[0] -= float64(ev.Dragged.DX) / mc.zoom
	mc.center[1] -= float64(ev.Dragged.DY) / mc.zoom
	mc.viewChanged()
}

// DragEnd implements fyne.Draggable.
func (mc *MapCanvas) DragEnd() {
	mc.dragging = false
}

// Scrolled zooms with the mouse wheel, keeping the world point under the
// pointer fixed.
func (mc *MapCanvas) Scrolled(ev *fyne.ScrollEvent) {
	anchor := mc.ScreenToWorld(ev.Position)

	if ev.Scrolled.DY > 0 {
		mc.zoom = clampZoom(mc.zoom * zoomStep)
	} else if ev.Scrolled.DY < 0 {
		mc.zoom = clampZoom(mc.zoom / zoomStep)
	} else {
		return
	}

	// Shift the center so the anchor maps back to the same pixel.
	after := mc.ScreenToWorld(ev.Position)
	mc.center[0] += anchor[0] - after[0]
	mc.center[1] += anchor[1] - after[1]
	mc.viewChanged()
}

// Refresh repaints the canvas.
func (mc *MapCanvas) Refresh() {
	mc.raster.Refresh()
	mc.BaseWidget.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (mc *MapCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &mapCanvasRenderer{canvas: mc}
}

type mapCanvasRenderer struct {
	canvas *MapCanvas
}

func (r *mapCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *mapCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *mapCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *mapCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *mapCanvasRenderer) Destroy() {}

// draw is the raster drawing function.
func (mc *MapCanvas) draw(w, h int) image.Image {
	mc.viewW, mc.viewH = w, h

	output := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBackground(output)

	for _, name := range mc.visible {
		fc := mc.fm.Features(name)
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			mc.drawFeature(output, name, f)
		}
	}

	// Labels last, over every layer.
	for _, name := range mc.visible {
		fc := mc.fm.Features(name)
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			mc.drawFeatureLabel(output, name, f)
		}
	}

	return output
}
