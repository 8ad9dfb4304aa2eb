package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookshield/internal/domain"
)

// Generator produces an answer grounded strictly in the retrieved chunks.
// The prompt instructs the model to refuse rather than use outside
// knowledge, and the cited sources are exactly the chunk ids placed into
// the prompt, nothing the model invents.
type Generator struct {
	completer  domain.Completer
	maxRetries int
}

func New(completer domain.Completer, maxRetries int) *Generator {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Generator{completer: completer, maxRetries: maxRetries}
}

// Generate answers the query from the given results. With no results the
// model is never called: the caller gets a fixed refusal plus a warning
// naming the reader's boundary, so an empty retrieval can not leak anything.
func (g *Generator) Generate(ctx context.Context, query string, results []domain.SearchResult, maxChapter int) (domain.AnswerResponse, error) {
	if len(results) == 0 {
		return domain.AnswerResponse{
			Answer:  "I don't have enough information in the chapters you've read to answer that.",
			Sources: []string{},
			Warning: fmt.Sprintf("no relevant passages found within your progress (chapter %d)", maxChapter),
		}, nil
	}

	prompt, sources := buildPrompt(query, results)

	var answer string
	var err error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		answer, err = g.completer.Complete(ctx, prompt)
		if err == nil || attempt == g.maxRetries-1 {
			break
		}
		if sleepErr := sleep(ctx, retryDelay(attempt)); sleepErr != nil {
			return domain.AnswerResponse{}, &domain.UpstreamError{Op: "completion", Err: sleepErr}
		}
	}
	if err != nil {
		return domain.AnswerResponse{}, &domain.UpstreamError{Op: "completion", Err: err}
	}

	return domain.AnswerResponse{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

func buildPrompt(query string, results []domain.SearchResult) (string, []string) {
	var b strings.Builder
	b.WriteString("You are a reading companion. Answer the question using ONLY the excerpts below.\n")
	b.WriteString("The excerpts cover only the part of the book the reader has finished; never mention or hint at later events.\n")
	b.WriteString("If the excerpts do not contain the answer, say you don't have enough information in the chapters read so far.\n\n")
	b.WriteString("--- CONTEXT EXCERPTS ---\n")
	sources := make([]string, 0, len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "[%s] %s\n\n", r.Chunk.ID, r.Chunk.Text)
		sources = append(sources, r.Chunk.ID)
	}
	b.WriteString("--- END EXCERPTS ---\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\nANSWER:", query)
	return b.String(), sources
}

func retryDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
