// Package flatmap provides the host map object: the manifest describing a
// flatmap's layers, annotations, and options, plus the callback channel back
// to the embedding application.
package flatmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"flatmap-viewer/internal/layers"
)

// Options are the per-map viewer options from the manifest.
type Options struct {
	Searchable  bool `json:"searchable,omitempty"`
	FeatureInfo bool `json:"feature-info,omitempty"`
	Tooltips    bool `json:"tooltips,omitempty"`
}

// Callback receives host-application events (query results requested,
// feature clicks, UI loaded).
type Callback func(event string, payload map[string]interface{})

// manifest is the on-disk JSON shape of a flatmap.
type manifest struct {
	ID          string                 `json:"id"`
	Describes   string                 `json:"describes,omitempty"`
	Options     Options                `json:"options"`
	Extent      []float64              `json:"extent,omitempty"`
	Layers      []layers.Descriptor    `json:"layers"`
	Annotations map[string]*Annotation `json:"annotations"`
	Sources     map[string]string      `json:"sources,omitempty"`
}

// FlatMap is a loaded flatmap: layer declarations, the annotation table,
// per-layer feature collections, and the host callback.
type FlatMap struct {
	id        string
	describes string
	options   Options
	extent    orb.Bound
	layers    []layers.Descriptor

	annotations map[string]*Annotation
	features    map[string]*geojson.FeatureCollection

	mu       sync.RWMutex
	callback Callback
}

// New builds a flatmap in memory. Used directly by tests; Load is the
// file-backed path.
func New(id, describes string, options Options, extent orb.Bound,
	descriptors []layers.Descriptor, annotations map[string]*Annotation) *FlatMap {

	if annotations == nil {
		annotations = make(map[string]*Annotation)
	}
	for id, a := range annotations {
		// A manifest value of null decodes to a nil entry; drop it.
		if a == nil {
			delete(annotations, id)
			continue
		}
		if a.ID == "" {
			a.ID = id
		}
	}
	return &FlatMap{
		id:          id,
		describes:   describes,
		options:     options,
		extent:      extent,
		layers:      descriptors,
		annotations: annotations,
		features:    make(map[string]*geojson.FeatureCollection),
	}
}

// Load reads a flatmap manifest and its per-layer GeoJSON sources.
// Source paths are resolved relative to the manifest file.
func Load(path string) (*FlatMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	extent := orb.Bound{}
	if len(m.Extent) == 4 {
		extent = orb.Bound{
			Min: orb.Point{m.Extent[0], m.Extent[1]},
			Max: orb.Point{m.Extent[2], m.Extent[3]},
		}
	}

	fm := New(m.ID, m.Describes, m.Options, extent, m.Layers, m.Annotations)

	dir := filepath.Dir(path)
	for layerID, src := range m.Sources {
		raw, err := os.ReadFile(filepath.Join(dir, src))
		if err != nil {
			return nil, fmt.Errorf("read layer source %s: %w", src, err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("parse layer source %s: %w", src, err)
		}
		fm.features[layerID] = fc
	}

	return fm, nil
}

// ID returns the flatmap identifier.
func (fm *FlatMap) ID() string { return fm.id }

// Describes returns the ontology term this map describes.
func (fm *FlatMap) Describes() string { return fm.describes }

// Options returns the viewer options.
func (fm *FlatMap) Options() Options { return fm.options }

// Extent returns the map's configured extent.
func (fm *FlatMap) Extent() orb.Bound { return fm.extent }

// Layers returns the declared layer descriptors in declaration order.
func (fm *FlatMap) Layers() []layers.Descriptor { return fm.layers }

// SetFeatures installs a layer's feature collection. Used by embedders that
// build maps in memory rather than from manifest sources.
func (fm *FlatMap) SetFeatures(layerID string, fc *geojson.FeatureCollection) {
	fm.features[layerID] = fc
}

// Features returns the feature collection for a layer, or nil.
func (fm *FlatMap) Features(layerID string) *geojson.FeatureCollection {
	return fm.features[layerID]
}

// Annotation returns the annotation for a feature id, or nil.
func (fm *FlatMap) Annotation(id string) *Annotation {
	return fm.annotations[id]
}

// AnnotationIDs returns every annotated feature id in sorted order, so the
// startup flag walk is deterministic.
func (fm *FlatMap) AnnotationIDs() []string {
	ids := make([]string, 0, len(fm.annotations))
	for id := range fm.annotations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelsForFeature returns the ontology model ids for a feature, or nil.
func (fm *FlatMap) ModelsForFeature(id string) []string {
	if a := fm.annotations[id]; a != nil {
		return a.Models
	}
	return nil
}

// MapLayerID returns the engine layer id for a declared layer name.
func (fm *FlatMap) MapLayerID(name string) string {
	if fm.id == "" {
		return name
	}
	return fm.id + "/" + name
}

// SetCallback registers the host-application callback.
func (fm *FlatMap) SetCallback(cb Callback) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.callback = cb
}

// Notify forwards an event to the host application, if one is registered.
func (fm *FlatMap) Notify(event string, payload map[string]interface{}) {
	fm.mu.RLock()
	cb := fm.callback
	fm.mu.RUnlock()
	if cb != nil {
		cb(event, payload)
	}
}

// FeatureEvent forwards a feature-level event (e.g. a marker click) to the
// host application.
func (fm *FlatMap) FeatureEvent(event string, properties geojson.Properties) {
	payload := map[string]interface{}{"type": event}
	for k, v := range properties {
		payload[k] = v
	}
	fm.Notify(event, payload)
}

// FindByLabel returns the ids of annotations whose label contains the text,
// case-insensitively, in sorted id order. Backs the search control.
func (fm *FlatMap) FindByLabel(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	var ids []string
	for id, a := range fm.annotations {
		if strings.Contains(strings.ToLower(a.Label), text) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
