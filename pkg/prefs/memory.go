// Package prefs provides listing preference stores.
package prefs

import (
	"context"
	"sync"

	"github.com/sgaunet/s2console/pkg/listing"
)

// Memory keeps preferences for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	prefs map[string]listing.Preferences
}

var _ listing.PreferenceStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{prefs: make(map[string]listing.Preferences)}
}

// Get returns the preferences stored for resource.
func (m *Memory) Get(_ context.Context, resource string) (listing.Preferences, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[resource]
	return p, ok, nil
}

// Set stores the preferences for resource.
func (m *Memory) Set(_ context.Context, resource string, p listing.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[resource] = p
	return nil
}
