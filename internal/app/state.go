// Package app provides application session state, events, and theming.
package app

import (
	"fmt"
	"sync"

	"flatmap-viewer/internal/flatmap"
)

// State holds the viewer session: the loaded map and the event bus between
// the interaction layer and the window chrome.
type State struct {
	mu sync.RWMutex

	// MapPath is the manifest path of the loaded map, "" for none.
	MapPath string

	// Map is the loaded flatmap, nil until one is opened.
	Map *flatmap.FlatMap

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	// EventMapLoaded fires with the manifest path after a map opens.
	EventMapLoaded EventType = iota

	// EventStatus fires with a string for the status bar.
	EventStatus

	// EventQueryStarted and EventQueryFinished bracket a knowledge query.
	EventQueryStarted
	EventQueryFinished

	// EventFeatureQueried fires with the query-data payload when the user
	// requests data for a feature.
	EventFeatureQueried

	// EventFeatureClicked fires with the feature properties when a marker
	// is clicked.
	EventFeatureClicked

	// EventLayersChanged fires when the active layer set changes.
	EventLayersChanged

	// EventSelectionChanged fires with the selected feature's layer name.
	EventSelectionChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state.
func NewState() *State {
	return &State{
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadMap reads a flatmap manifest and makes it the session map. The map's
// host callback is routed onto the event bus.
func (s *State) LoadMap(path string) error {
	fm, err := flatmap.Load(path)
	if err != nil {
		return fmt.Errorf("load map: %w", err)
	}

	s.mu.Lock()
	s.MapPath = path
	s.Map = fm
	s.mu.Unlock()

	fm.SetCallback(s.routeMapEvent)
	s.Emit(EventMapLoaded, path)
	return nil
}

// SetMap installs an already-built flatmap, for embedders that construct
// maps in memory.
func (s *State) SetMap(fm *flatmap.FlatMap) {
	s.mu.Lock()
	s.MapPath = ""
	s.Map = fm
	s.mu.Unlock()

	fm.SetCallback(s.routeMapEvent)
	s.Emit(EventMapLoaded, "")
}

// routeMapEvent translates flatmap host callbacks into bus events.
func (s *State) routeMapEvent(event string, payload map[string]interface{}) {
	switch event {
	case "query-data":
		s.Emit(EventFeatureQueried, payload)
	case "click":
		s.Emit(EventFeatureClicked, payload)
	default:
		s.Emit(EventStatus, fmt.Sprintf("%s: %v", event, payload))
	}
}

// CurrentMap returns the session map, or nil.
func (s *State) CurrentMap() *flatmap.FlatMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Map
}
