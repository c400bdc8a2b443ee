package format

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps format names (and aliases) to entries. It is safe for
// concurrent lookup and is the single extension point for adding formats.
type Registry struct {
	mu      sync.RWMutex
	entries map[Format]*Entry
	names   map[string]Format
}

func NewRegistry() *Registry {
	return &Registry{
		entries: map[Format]*Entry{},
		names:   map[string]Format{},
	}
}

// Register adds an entry under its canonical name and aliases. Names are
// first-come-first-served; re-registration is an error.
func (r *Registry) Register(e *Entry) error {
	if e.Format == "" {
		return fmt.Errorf("%w: empty format name", ErrBadFormat)
	}
	if e.NewDecoder == nil || e.NewEncoder == nil {
		return fmt.Errorf("format %q: entry missing constructor", e.Format)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := append([]string{string(e.Format)}, e.Aliases...)
	for _, name := range names {
		if prev, ok := r.names[name]; ok {
			return fmt.Errorf("format name %q already registered to %q", name, prev)
		}
	}
	for _, name := range names {
		r.names[name] = e.Format
	}
	r.entries[e.Format] = e
	return nil
}

// Lookup resolves a format name or alias to its entry.
func (r *Registry) Lookup(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.names[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadFormat, name)
	}
	return r.entries[f], nil
}

// Formats returns the registered canonical names in sorted order.
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]Format, 0, len(r.entries))
	for f := range r.entries {
		res = append(res, f)
	}
	slices.Sort(res)
	return res
}
