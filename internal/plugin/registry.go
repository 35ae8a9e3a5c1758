package plugin

import (
	"errors"
	"fmt"
	"sync"
)

var ErrPluginExists = errors.New("plugin already registered")

type entry struct {
	plugin  Plugin
	enabled bool
}

// Registry maps plugin ids to implementations in registration order
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a plugin; a second plugin with the same id is refused
func (r *Registry) Register(p Plugin) error {
	meta := p.Metadata()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrPluginExists, meta.ID)
	}
	r.entries[meta.ID] = &entry{plugin: p, enabled: meta.Enabled}
	r.order = append(r.order, meta.ID)
	return nil
}

// Unregister removes a plugin and reports whether it was registered
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a plugin by id
func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// Enable turns a plugin on and reports whether it exists
func (r *Registry) Enable(id string) bool {
	return r.setEnabled(id, true)
}

// Disable turns a plugin off and reports whether it exists
func (r *Registry) Disable(id string) bool {
	return r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.enabled = enabled
	return true
}

// IsEnabled reports the registry-owned enabled flag
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return ok && e.enabled
}

// List returns metadata for every plugin with the current enabled flag
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		meta := e.plugin.Metadata()
		meta.Enabled = e.enabled
		out = append(out, meta)
	}
	return out
}

// ByCategory returns plugins in the given catalogue category
func (r *Registry) ByCategory(c Category) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0)
	for _, id := range r.order {
		if p := r.entries[id].plugin; p.Metadata().Category == c {
			out = append(out, p)
		}
	}
	return out
}

// HasDecisionPlugins reports whether any decision-capable plugin is registered, enabled or not
func (r *Registry) HasDecisionPlugins() bool {
	if r == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if _, ok := AsDecisionPlugin(r.entries[id].plugin); ok {
			return true
		}
	}
	return false
}

// EnabledDecisionPlugins returns enabled decision plugins in registration order
func (r *Registry) EnabledDecisionPlugins() []DecisionPlugin {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DecisionPlugin, 0)
	for _, id := range r.order {
		e := r.entries[id]
		if !e.enabled {
			continue
		}
		if dp, ok := AsDecisionPlugin(e.plugin); ok {
			out = append(out, dp)
		}
	}
	return out
}
