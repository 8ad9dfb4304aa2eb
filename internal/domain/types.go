package domain

import "fmt"

// Chunk is the minimal retrievable unit of book text. Chunks are immutable
// after ingestion; Chapter is the spoiler boundary and must reflect true
// narrative order.
type Chunk struct {
	ID        string
	BookID    string
	Chapter   int
	Position  int
	Text      string
	Embedding []float64
}

// ChunkID builds the stable identifier for a chunk at the given chapter and
// position within the chapter.
func ChunkID(chapter, position int) string {
	return fmt.Sprintf("chapter_%d_chunk_%d", chapter, position)
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// QueryRequest carries everything needed to answer one question. It exists
// only for the lifetime of the request; nothing about it is stored.
type QueryRequest struct {
	UserID     string
	BookID     string
	Query      string
	MaxChapter int
}

// AnswerResponse is the result of a grounded generation. Sources lists the
// ids of exactly the chunks whose text entered the prompt. Warning is
// non-empty when the safe context was insufficient to answer.
type AnswerResponse struct {
	Answer  string
	Sources []string
	Warning string
}
