// Package engine defines the contracts the interaction controller consumes:
// the rendering engine, transient feature handles, and the pointer event
// source. The real implementation lives in ui/canvas; tests use fakes.
package engine

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"flatmap-viewer/internal/state"
)

// FeatureRef is a transient handle to a rendered feature, valid only within
// the current event handler. Only the (SourceLayer, ID) identity may be kept
// across render passes, via Key.
type FeatureRef struct {
	LayerID     string
	SourceLayer string
	ID          string
	Geometry    orb.Geometry
	Properties  geojson.Properties
}

// Key returns the stable identity used for flag-store calls.
func (f *FeatureRef) Key() state.Key {
	return state.Key{SourceLayer: f.SourceLayer, FeatureID: f.ID}
}

// GeometryType returns the GeoJSON geometry type name, or "" when the
// feature carries no geometry.
func (f *FeatureRef) GeometryType() string {
	if f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}

// IsPolygon reports whether the feature is an areal geometry.
func (f *FeatureRef) IsPolygon() bool {
	t := f.GeometryType()
	return t == "Polygon" || t == "MultiPolygon"
}

// IsSymbol reports whether the feature renders as a point symbol.
func (f *FeatureRef) IsSymbol() bool {
	t := f.GeometryType()
	return t == "Point" || t == "MultiPoint"
}

// Cursor is a canvas cursor style.
type Cursor string

// Cursor styles the controller drives.
const (
	CursorNone     Cursor = ""
	CursorPointer  Cursor = "pointer"
	CursorProgress Cursor = "progress"
	CursorDefault  Cursor = "default"
)

// FitOptions controls camera framing.
type FitOptions struct {
	Padding int
	Animate bool
}

// View is a partial camera state: nil fields are left unchanged.
type View struct {
	Center *orb.Point
	Zoom   *float64
}

// MapEngine is the rendering-engine contract. All calls are idempotent and
// their effects are visible to subsequent calls within the same tick.
type MapEngine interface {
	// QueryRenderedFeatures returns the features rendered at the given map
	// point, topmost first. A nil point queries the whole viewport.
	QueryRenderedFeatures(at *orb.Point) []*FeatureRef

	FitBounds(b orb.Bound, opts FitOptions)
	PanTo(p orb.Point)
	Bounds() orb.Bound
	JumpTo(v View)
	Center() orb.Point
	Zoom() float64
	SetCursor(c Cursor)
}

// EventType identifies a pointer event kind.
type EventType int

// Pointer event kinds delivered to the controller.
const (
	EventMouseMove EventType = iota
	EventClick
	EventContextMenu
	EventTouchStart
	EventTouchEnd
)

// Event is a discrete pointer event in map coordinates.
type Event struct {
	Type  EventType
	Point orb.Point
	Time  time.Time
}

// EventSource delivers pointer events. Handlers for the same event type run
// in registration order; no two handlers run concurrently.
type EventSource interface {
	On(t EventType, handler func(Event))
}
