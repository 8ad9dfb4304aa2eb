package memory

import (
	"context"
	"errors"
	"sync"

	"bookshield/internal/domain"
	"bookshield/internal/index"
)

// bookIndex is an immutable snapshot of one book's chunks and vectors.
// Rebuilds create a new value; the registry pointer is swapped under lock, so
// a concurrent search sees the old snapshot or the new one, never a mix.
type bookIndex struct {
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
}

// Index is an in-memory vector index using brute-force cosine similarity
// over L2-normalized vectors. Filtering happens before scoring: unsafe
// chunks are never candidates.
type Index struct {
	mu    sync.RWMutex
	books map[string]*bookIndex
}

func NewIndex() *Index {
	return &Index{books: make(map[string]*bookIndex)}
}

// Build constructs a fresh index for the book and atomically replaces any
// previous one.
func (x *Index) Build(_ context.Context, bookID string, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return errors.New("vector dimension mismatch within build")
		}
	}
	next := &bookIndex{
		dimension: dimension,
		chunks:    append([]domain.Chunk(nil), chunks...),
		vectors:   append([][]float64(nil), vectors...),
	}
	x.mu.Lock()
	x.books[bookID] = next
	x.mu.Unlock()
	return nil
}

// Search scores only chunks at or before maxChapter and returns up to topK
// results ordered by descending score with chunk-id tiebreak. An empty index
// or an empty safe set yields an empty result, not an error.
func (x *Index) Search(_ context.Context, bookID string, vector []float64, maxChapter, topK int) ([]domain.SearchResult, error) {
	x.mu.RLock()
	bi, ok := x.books[bookID]
	x.mu.RUnlock()
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if topK <= 0 {
		topK = 5
	}
	if len(bi.chunks) == 0 {
		return nil, nil
	}
	if len(vector) != bi.dimension {
		return nil, &domain.IndexConsistencyError{Want: bi.dimension, Got: len(vector)}
	}
	results := make([]domain.SearchResult, 0, len(bi.chunks))
	for i, c := range bi.chunks {
		if !index.IsSafe(c, maxChapter) {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: dot(bi.vectors[i], vector)})
	}
	index.SortResults(results)
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
