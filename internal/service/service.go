// Package service wires chunking, storage, embedding, indexing, retrieval
// and generation into the operations the server exposes. The service holds
// no per-request state; concurrent requests for different readers of the
// same book are independent.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"bookshield/internal/domain"
	"bookshield/internal/embedding"
)

type Retriever interface {
	Retrieve(ctx context.Context, bookID, query string, maxChapter int) ([]domain.SearchResult, error)
}

type Generator interface {
	Generate(ctx context.Context, query string, results []domain.SearchResult, maxChapter int) (domain.AnswerResponse, error)
}

type Service struct {
	chunker           domain.Chunker
	store             domain.ChunkStore
	embedders         *embedding.Registry
	index             domain.Index
	retriever         Retriever
	generator         Generator
	summarizer        domain.Summarizer
	recapMaxSentences int

	// Per-book locks gate publication: a query holds the read side across
	// embed-and-search, an ingest holds the write side across index build
	// and embedder publish, so a query pairs embedder and index from the
	// same generation.
	locksMu sync.Mutex
	locks   map[string]*sync.RWMutex
}

func New(
	chunker domain.Chunker,
	store domain.ChunkStore,
	embedders *embedding.Registry,
	index domain.Index,
	retriever Retriever,
	generator Generator,
	summarizer domain.Summarizer,
	recapMaxSentences int,
) *Service {
	if recapMaxSentences <= 0 {
		recapMaxSentences = 5
	}
	return &Service{
		chunker:           chunker,
		store:             store,
		embedders:         embedders,
		index:             index,
		retriever:         retriever,
		generator:         generator,
		summarizer:        summarizer,
		recapMaxSentences: recapMaxSentences,
		locks:             make(map[string]*sync.RWMutex),
	}
}

func (s *Service) bookLock(bookID string) *sync.RWMutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[bookID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[bookID] = l
	}
	return l
}

// Ingest chunks the book, embeds every chunk with a fresh embedder, persists
// chunks with their vectors, then publishes index and embedder together.
// Queries running during a re-ingest see either the old generation or the new
// one, never a mix. Returns the number of chunks indexed.
func (s *Service) Ingest(ctx context.Context, bookID, text string) (int, error) {
	if strings.TrimSpace(bookID) == "" {
		return 0, &domain.ClientInputError{Field: "book_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(text) == "" {
		return 0, &domain.ClientInputError{Field: "text", Reason: "must not be empty"}
	}

	chunks, err := s.chunker.Chunk(bookID, text)
	if err != nil {
		return 0, fmt.Errorf("chunk book %q: %w", bookID, err)
	}
	if len(chunks) == 0 {
		return 0, &domain.ClientInputError{Field: "text", Reason: "no chunkable content"}
	}

	emb := s.embedders.New()
	corpus := make([]string, len(chunks))
	for i, c := range chunks {
		corpus[i] = c.Text
	}
	if err := emb.Prepare(corpus); err != nil {
		return 0, fmt.Errorf("prepare embedder for %q: %w", bookID, err)
	}
	vectors := make([][]float64, len(chunks))
	for i, c := range chunks {
		vec, err := emb.Embed(ctx, c.Text)
		if err != nil {
			return 0, &domain.UpstreamError{Op: "embedding", Err: err}
		}
		vectors[i] = vec
		chunks[i].Embedding = vec
	}
	// Embeddings ride along with the chunks so a restart can rebuild the
	// index without re-embedding.
	if err := s.store.Save(ctx, bookID, chunks); err != nil {
		return 0, fmt.Errorf("save chunks for %q: %w", bookID, err)
	}
	if err := s.publish(ctx, bookID, emb, chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// publish swaps in the new index and embedder as one generation.
func (s *Service) publish(ctx context.Context, bookID string, emb domain.Embedder, chunks []domain.Chunk, vectors [][]float64) error {
	lock := s.bookLock(bookID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.index.Build(ctx, bookID, chunks, vectors); err != nil {
		return fmt.Errorf("build index for %q: %w", bookID, err)
	}
	s.embedders.Put(bookID, emb)
	return nil
}

// WarmStart rebuilds the index and embedder for every book the store holds.
// Stored embeddings are reused, so the ingest-time embedding cost is paid
// once; local embedders are re-prepared on the same corpus and produce the
// same vectors. Returns the number of books restored.
func (s *Service) WarmStart(ctx context.Context) (int, error) {
	books, err := s.store.Books(ctx)
	if err != nil {
		return 0, fmt.Errorf("list books: %w", err)
	}
	for _, bookID := range books {
		chunks, err := s.store.ChunksUpTo(ctx, bookID, math.MaxInt)
		if err != nil {
			return 0, fmt.Errorf("load chunks for %q: %w", bookID, err)
		}
		if len(chunks) == 0 {
			continue
		}
		emb := s.embedders.New()
		corpus := make([]string, len(chunks))
		for i, c := range chunks {
			corpus[i] = c.Text
		}
		if err := emb.Prepare(corpus); err != nil {
			return 0, fmt.Errorf("prepare embedder for %q: %w", bookID, err)
		}
		vectors := make([][]float64, len(chunks))
		for i, c := range chunks {
			if len(c.Embedding) > 0 {
				vectors[i] = c.Embedding
				continue
			}
			vec, err := emb.Embed(ctx, c.Text)
			if err != nil {
				return 0, &domain.UpstreamError{Op: "embedding", Err: err}
			}
			vectors[i] = vec
		}
		if err := s.publish(ctx, bookID, emb, chunks, vectors); err != nil {
			return 0, err
		}
	}
	return len(books), nil
}

// Ask validates the request, retrieves within the reader's boundary and
// generates a grounded answer.
func (s *Service) Ask(ctx context.Context, req domain.QueryRequest) (domain.AnswerResponse, error) {
	if err := validate(req); err != nil {
		return domain.AnswerResponse{}, err
	}
	lock := s.bookLock(req.BookID)
	lock.RLock()
	results, err := s.retriever.Retrieve(ctx, req.BookID, req.Query, req.MaxChapter)
	lock.RUnlock()
	if err != nil {
		return domain.AnswerResponse{}, err
	}
	return s.generator.Generate(ctx, req.Query, results, req.MaxChapter)
}

// Recap summarizes everything up to and including maxChapter. The summary
// is extractive over the safe chunks only, so it can not spoil.
func (s *Service) Recap(ctx context.Context, bookID string, maxChapter int) (domain.AnswerResponse, error) {
	if strings.TrimSpace(bookID) == "" {
		return domain.AnswerResponse{}, &domain.ClientInputError{Field: "book_id", Reason: "must not be empty"}
	}
	if maxChapter < 0 {
		return domain.AnswerResponse{}, &domain.ClientInputError{Field: "max_chapter", Reason: "must not be negative"}
	}
	chunks, err := s.store.ChunksUpTo(ctx, bookID, maxChapter)
	if err != nil {
		return domain.AnswerResponse{}, err
	}
	if len(chunks) == 0 {
		return domain.AnswerResponse{
			Answer:  "There is nothing to recap yet.",
			Sources: []string{},
			Warning: fmt.Sprintf("no content within your progress (chapter %d)", maxChapter),
		}, nil
	}
	texts := make([]string, 0, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
		sources = append(sources, c.ID)
	}
	summary, err := s.summarizer.Summarize(strings.Join(texts, " "), s.recapMaxSentences)
	if err != nil {
		return domain.AnswerResponse{}, fmt.Errorf("summarize %q: %w", bookID, err)
	}
	return domain.AnswerResponse{Answer: summary, Sources: sources}, nil
}

func validate(req domain.QueryRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return &domain.ClientInputError{Field: "user_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.BookID) == "" {
		return &domain.ClientInputError{Field: "book_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Query) == "" {
		return &domain.ClientInputError{Field: "query", Reason: "must not be empty"}
	}
	if req.MaxChapter < 0 {
		return &domain.ClientInputError{Field: "max_chapter", Reason: "must not be negative"}
	}
	return nil
}
