package gemini

import (
	"context"
	"errors"
	"math"

	"google.golang.org/genai"
)

// Embedder produces embeddings via the Gemini API. The client reads
// GEMINI_API_KEY from the environment.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewEmbedder creates a Gemini embeddings client for the given model.
func NewEmbedder(ctx context.Context, model string) (*Embedder, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &Embedder{client: client, model: model}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini" }

// Clone returns a fresh embedder over the same client. Each ingest run gets
// its own instance so the lazily set dimension is never written concurrently.
func (e *Embedder) Clone() *Embedder {
	return &Embedder{client: e.client, model: e.model}
}

// Prepare is not required for remote embedding. Dimension is set lazily on first embed.
func (e *Embedder) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns an L2-normalized embedding vector for the given text, so
// cosine similarity reduces to a dot product downstream.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: text}}},
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("empty embedding")
	}
	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	norm := 0.0
	for i, v := range values {
		vec[i] = float64(v)
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	if e.dimension == 0 {
		e.dimension = len(vec)
	}
	return vec, nil
}
