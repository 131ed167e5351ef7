// Package layers tracks which map layers are active and selectable.
package layers

import (
	"sync"
)

// Descriptor describes a layer as declared by the flatmap manifest.
type Descriptor struct {
	ID            string `json:"id"`
	Description   string `json:"description,omitempty"`
	BackgroundFor string `json:"background-for,omitempty"`
	NoSelect      bool   `json:"no-select,omitempty"`
}

// Layer is a registered foreground layer. Background layers referenced via
// BackgroundFor are attached here and never registered on their own.
type Layer struct {
	ID               string
	Description      string
	BackgroundLayers []*Layer
	NoSelect         bool
}

// Partition splits declared layers into foreground layers with their
// background layers attached. A layer appears either as a foreground entry
// or inside some BackgroundLayers list, never both.
func Partition(descriptors []Descriptor) []*Layer {
	foreground := make([]*Layer, 0, len(descriptors))
	byID := make(map[string]*Layer)

	for _, d := range descriptors {
		if d.BackgroundFor != "" {
			continue
		}
		layer := &Layer{
			ID:          d.ID,
			Description: d.Description,
			NoSelect:    d.NoSelect,
		}
		foreground = append(foreground, layer)
		byID[d.ID] = layer
	}

	for _, d := range descriptors {
		if d.BackgroundFor == "" {
			continue
		}
		owner, ok := byID[d.BackgroundFor]
		if !ok {
			// Background for an unknown layer; nothing to attach it to.
			continue
		}
		owner.BackgroundLayers = append(owner.BackgroundLayers, &Layer{
			ID:          d.ID,
			Description: d.Description,
			NoSelect:    true,
		})
	}

	return foreground
}

// Manager tracks the registered layers and which of them are active.
type Manager struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]*Layer
	active map[string]bool
}

// NewManager creates an empty layer manager.
func NewManager() *Manager {
	return &Manager{
		byID:   make(map[string]*Layer),
		active: make(map[string]bool),
	}
}

// AddLayer registers a foreground layer and activates it. Layers are
// registered once at startup, in declaration order.
func (m *Manager) AddLayer(layer *Layer) {
	if layer == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[layer.ID]; ok {
		return
	}
	m.byID[layer.ID] = layer
	m.order = append(m.order, layer.ID)
	m.active[layer.ID] = true
}

// Activate marks a layer active. Activating an unknown or already-active
// layer is a no-op.
func (m *Manager) Activate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; ok {
		m.active[id] = true
	}
}

// Deactivate marks a layer inactive. Idempotent.
func (m *Manager) Deactivate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, id)
}

// ActiveLayerNames returns the active layer ids in registration order.
func (m *Manager) ActiveLayerNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.active))
	for _, id := range m.order {
		if m.active[id] {
			names = append(names, id)
		}
	}
	return names
}

// IsActive reports whether the layer is currently active.
func (m *Manager) IsActive(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[id]
}

// LayerQueryable reports whether features on the layer may be queried:
// the layer must be registered and selectable.
func (m *Manager) LayerQueryable(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layer, ok := m.byID[id]
	return ok && !layer.NoSelect
}

// Layer returns the registered layer with the given id, or nil.
func (m *Manager) Layer(id string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// Layers returns all registered layers in registration order.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Layer, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out
}
