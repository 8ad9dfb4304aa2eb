package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bookshield/internal/domain"
	"bookshield/internal/index"
)

// Index is a minimal REST client to Qdrant holding one collection per book.
// It assumes cosine distance. A rebuild upserts into a fresh versioned
// collection and repoints the book entry afterwards, so readers always hit a
// complete collection; the old one is dropped best-effort.
type Index struct {
	url    string
	apiKey string
	prefix string
	client *http.Client

	mu    sync.RWMutex
	books map[string]bookEntry
}

type bookEntry struct {
	collection string
	dimension  int
}

type Config struct {
	URL              string
	APIKey           string
	CollectionPrefix string
	Timeout          time.Duration
}

func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "bookshield"
	}
	return &Index{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		prefix: prefix,
		client: &http.Client{Timeout: timeout},
		books:  make(map[string]bookEntry),
	}
}

// Build creates a fresh collection for the book, upserts all points, then
// repoints the book entry.
func (x *Index) Build(ctx context.Context, bookID string, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	collection := fmt.Sprintf("%s_%s_%d", x.prefix, bookID, time.Now().UnixNano())

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s", x.url, collection), body); err != nil {
		return err
	}

	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":     i,
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id": chunks[i].ID,
				"book_id":  chunks[i].BookID,
				"chapter":  chunks[i].Chapter,
				"position": chunks[i].Position,
				"text":     chunks[i].Text,
			},
		}
	}
	if err := x.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", x.url, collection), map[string]any{"points": points}); err != nil {
		return err
	}

	x.mu.Lock()
	old, had := x.books[bookID]
	x.books[bookID] = bookEntry{collection: collection, dimension: dimension}
	x.mu.Unlock()

	if had {
		x.dropCollection(ctx, old.collection)
	}
	return nil
}

// Search asks Qdrant for the nearest safe chunks. The chapter bound is a
// server-side payload filter, so unsafe chunks never enter the candidate
// set. Tie order is fixed client-side by chunk id.
func (x *Index) Search(ctx context.Context, bookID string, vector []float64, maxChapter, topK int) ([]domain.SearchResult, error) {
	x.mu.RLock()
	entry, ok := x.books[bookID]
	x.mu.RUnlock()
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if topK <= 0 {
		topK = 5
	}
	if entry.dimension == 0 {
		return nil, nil
	}
	if len(vector) != entry.dimension {
		return nil, &domain.IndexConsistencyError{Want: entry.dimension, Got: len(vector)}
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "chapter", "range": map[string]any{"lte": maxChapter}},
			},
		},
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", x.url, entry.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			chunk.ID = v
		}
		if v, ok := r.Payload["book_id"].(string); ok {
			chunk.BookID = v
		}
		if v, ok := r.Payload["chapter"].(float64); ok {
			chunk.Chapter = int(v)
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	index.SortResults(results)
	return results, nil
}

func (x *Index) dropCollection(ctx context.Context, collection string) {
	// Best-effort cleanup of the replaced collection
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", x.url, collection), nil)
	if err != nil {
		return
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

func (x *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
