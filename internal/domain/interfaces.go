package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus. Query and
// chunk embeddings must come from the same prepared instance, otherwise
// similarity scores are meaningless.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits raw book text into chapter-tagged chunks suitable for
// retrieval indexing.
type Chunker interface {
	Chunk(bookID, text string) ([]Chunk, error)
}

// Index holds one vector index per book and supports boundary-bounded
// similarity search. Build replaces any previous index for the book
// atomically: concurrent searches observe the old index or the new one,
// never a mix.
type Index interface {
	Build(ctx context.Context, bookID string, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, bookID string, vector []float64, maxChapter, topK int) ([]SearchResult, error)
}

// ChunkStore persists the chunks of ingested books, embeddings included.
type ChunkStore interface {
	Save(ctx context.Context, bookID string, chunks []Chunk) error
	ChunksUpTo(ctx context.Context, bookID string, maxChapter int) ([]Chunk, error)
	Books(ctx context.Context) ([]string, error)
}

// Completer generates text from a prompt. Implementations wrap a specific
// language-model provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
