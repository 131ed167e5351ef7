// Package state provides the per-feature flag store that drives feature styling.
package state

import (
	"sync"
)

// Flag is a named boolean styling flag on a feature.
type Flag string

// Flags understood by the renderer.
const (
	FlagAnnotated       Flag = "annotated"
	FlagAnnotationError Flag = "annotation-error"
	FlagSelected        Flag = "selected"
	FlagHighlighted     Flag = "highlighted"
	FlagActive          Flag = "active"
)

// Key identifies a feature across render passes. Feature handles returned by
// the engine are transient, but the (source layer, feature id) pair is stable.
type Key struct {
	SourceLayer string
	FeatureID   string
}

// Listener is called when a flag changes value.
type Listener func(key Key, flag Flag, value bool)

// FlagStore is an explicit mapping from feature key to styling flags.
// Sets are idempotent, clears are explicit, and the stored state outlives
// render passes: the canvas reads it on every paint.
type FlagStore struct {
	mu        sync.RWMutex
	flags     map[Key]map[Flag]bool
	listeners []Listener
}

// NewFlagStore creates an empty flag store.
func NewFlagStore() *FlagStore {
	return &FlagStore{
		flags: make(map[Key]map[Flag]bool),
	}
}

// OnChange registers a listener invoked whenever a flag actually changes.
func (s *FlagStore) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Set sets a flag on a feature. Setting an already-set flag is a no-op.
func (s *FlagStore) Set(key Key, flag Flag) {
	s.mu.Lock()
	m, ok := s.flags[key]
	if !ok {
		m = make(map[Flag]bool)
		s.flags[key] = m
	}
	changed := !m[flag]
	m[flag] = true
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		for _, l := range listeners {
			l(key, flag, true)
		}
	}
}

// Clear removes a flag from a feature. Clearing an absent flag is a no-op.
func (s *FlagStore) Clear(key Key, flag Flag) {
	s.mu.Lock()
	m, ok := s.flags[key]
	changed := ok && m[flag]
	if changed {
		delete(m, flag)
		if len(m) == 0 {
			delete(s.flags, key)
		}
	}
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		for _, l := range listeners {
			l(key, flag, false)
		}
	}
}

// Has reports whether a flag is set on a feature.
func (s *FlagStore) Has(key Key, flag Flag) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key][flag]
}

// Flags returns a copy of all flags set on a feature.
func (s *FlagStore) Flags(key Key) map[Flag]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Flag]bool, len(s.flags[key]))
	for f, v := range s.flags[key] {
		if v {
			out[f] = true
		}
	}
	return out
}

// KeysWith returns every feature key that currently has the flag set.
// Order is unspecified.
func (s *FlagStore) KeysWith(flag Flag) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Key
	for k, m := range s.flags {
		if m[flag] {
			out = append(out, k)
		}
	}
	return out
}
