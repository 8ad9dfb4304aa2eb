package memory

import (
	"context"
	"sort"
	"sync"

	"bookshield/internal/domain"
)

// Store is an in-memory chunk store. Chunks are kept in ingestion order,
// which is (chapter, position) order by the chunker's contract.
type Store struct {
	mu     sync.RWMutex
	byBook map[string][]domain.Chunk
}

func NewStore() *Store {
	return &Store{byBook: make(map[string][]domain.Chunk)}
}

// Save replaces all chunks for the book.
func (s *Store) Save(_ context.Context, bookID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBook[bookID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// ChunksUpTo returns the book's chunks with chapter <= maxChapter, in
// ingestion order. An unknown book yields ErrBookNotFound.
func (s *Store) ChunksUpTo(_ context.Context, bookID string, maxChapter int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all, ok := s.byBook[bookID]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	var out []domain.Chunk
	for _, c := range all {
		if c.Chapter <= maxChapter {
			out = append(out, c)
		}
	}
	return out, nil
}

// Books lists the ids of all stored books in sorted order.
func (s *Store) Books(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.byBook))
	for id := range s.byBook {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
