package session

import (
	"fmt"

	"corview/internal/imaging"
)

// Entry is one registry row, shaped for display: identity, source filename
// and the declared volume position.
type Entry struct {
	ID       string
	Filename string
	Position float64
}

// Registry tracks loaded slice images under unique identities. Identities are
// drawn from a per-registry monotonic counter, so rapid successive adds can
// never collide the way a seconds-resolution timestamp key would. Listing
// order is insertion order.
//
// Registry is not safe for concurrent use; the owning Session serializes
// access.
type Registry struct {
	next   int
	order  []string
	slices map[string]*imaging.Slice
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slices: make(map[string]*imaging.Slice)}
}

// Add registers a slice and returns its assigned identity. Re-adding an
// already-registered instance fails with ErrDuplicate rather than silently
// producing a second entry.
func (r *Registry) Add(sl *imaging.Slice) (string, error) {
	for _, id := range r.order {
		if r.slices[id] == sl {
			return "", fmt.Errorf("%w: %s is %s", imaging.ErrDuplicate, sl.Filename(), id)
		}
	}
	r.next++
	id := fmt.Sprintf("img-%04d", r.next)
	r.order = append(r.order, id)
	r.slices[id] = sl
	return id, nil
}

// Get returns the slice registered under id, failing with ErrNotFound on a
// miss.
func (r *Registry) Get(id string) (*imaging.Slice, error) {
	sl, ok := r.slices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", imaging.ErrNotFound, id)
	}
	return sl, nil
}

// List returns the registered entries in insertion order.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		sl := r.slices[id]
		entries = append(entries, Entry{ID: id, Filename: sl.Filename(), Position: sl.Position()})
	}
	return entries
}

// Len returns the number of registered slices.
func (r *Registry) Len() int { return len(r.order) }

// Clear empties the registry. Slice instances held elsewhere are unaffected;
// only the records of their existence go away. The identity counter keeps
// counting so cleared identities are never reissued.
func (r *Registry) Clear() {
	r.order = r.order[:0]
	r.slices = make(map[string]*imaging.Slice)
}
