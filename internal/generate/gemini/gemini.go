// Package gemini completes prompts with Google's Gemini models. The API key
// is read from the GEMINI_API_KEY environment variable by the client.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type Completer struct {
	client *genai.Client
	model  string
}

func NewCompleter(ctx context.Context, model string) (*Completer, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Completer{client: client, model: model}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
