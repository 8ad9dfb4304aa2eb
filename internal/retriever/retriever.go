package retriever

import (
	"context"
	"math"
	"regexp"
	"strings"

	"bookshield/internal/domain"
	"bookshield/internal/embedding"
	"bookshield/internal/index"
)

// Retriever turns a query into a vector, searches the book's index within
// the spoiler boundary and returns the ranked safe chunks. Retrieval is
// fully deterministic for an unchanged index.
type Retriever struct {
	embedders *embedding.Registry
	index     domain.Index
	store     domain.ChunkStore
	topK      int
}

func New(embedders *embedding.Registry, idx domain.Index, store domain.ChunkStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedders: embedders, index: idx, store: store, topK: topK}
}

// Retrieve returns up to topK chunks relevant to the query, every one of
// them at or before maxChapter. An empty result is not an error; it means
// nothing safe matched and the caller should surface a warning.
func (r *Retriever) Retrieve(ctx context.Context, bookID, query string, maxChapter int) ([]domain.SearchResult, error) {
	emb, err := r.embedders.Get(bookID)
	if err != nil {
		return nil, err
	}
	vec, err := emb.Embed(ctx, query)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "embedding", Err: err}
	}
	// A zero vector means every query token is outside the vocabulary;
	// similarity search would rank nothing. Fall back to lexical overlap
	// over the safe chunks only.
	if isZero(vec) {
		return r.lexicalSearch(ctx, bookID, query, maxChapter)
	}
	results, err := r.index.Search(ctx, bookID, vec, maxChapter, r.topK)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch ranks the safe chunks by Ochiai token overlap with the
// query. The boundary is applied before scoring, same as the vector path.
func (r *Retriever) lexicalSearch(ctx context.Context, bookID, query string, maxChapter int) ([]domain.SearchResult, error) {
	chunks, err := r.store.ChunksUpTo(ctx, bookID, maxChapter)
	if err != nil {
		return nil, err
	}
	qset := toTokenSet(query)
	results := make([]domain.SearchResult, 0, len(chunks))
	for _, c := range chunks {
		score := overlapOchiai(qset, c.Text)
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: c, Score: score})
	}
	index.SortResults(results)
	if r.topK < len(results) {
		results = results[:r.topK]
	}
	return results, nil
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai computes |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := unicodeWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / (math.Sqrt(float64(len(qset))) * math.Sqrt(float64(len(seen))))
}
