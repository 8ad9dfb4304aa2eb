package embedding

import (
	"sync"

	"bookshield/internal/domain"
)

// Factory creates a fresh, unprepared embedder instance.
type Factory func() domain.Embedder

// Registry keeps one prepared embedder per book. Local embedders such as
// TF-IDF derive their vocabulary from a single book's corpus, so a query
// against book A must be embedded by the instance prepared on book A.
type Registry struct {
	mu      sync.RWMutex
	factory Factory
	byBook  map[string]domain.Embedder
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{factory: factory, byBook: make(map[string]domain.Embedder)}
}

// New returns a fresh embedder for an ingest run. It is not visible to
// queries until Put is called after the index build succeeds.
func (r *Registry) New() domain.Embedder {
	return r.factory()
}

// Put publishes the prepared embedder for a book, replacing any previous one.
func (r *Registry) Put(bookID string, e domain.Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byBook[bookID] = e
}

// Get returns the embedder prepared for a book, or ErrBookNotFound.
func (r *Registry) Get(bookID string) (domain.Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byBook[bookID]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return e, nil
}
