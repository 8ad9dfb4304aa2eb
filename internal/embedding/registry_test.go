package embedding

import (
	"context"
	"errors"
	"testing"

	"bookshield/internal/domain"
)

type stubEmbedder struct{ name string }

func (s *stubEmbedder) Name() string                                     { return s.name }
func (s *stubEmbedder) Prepare([]string) error                           { return nil }
func (s *stubEmbedder) Dimension() int                                   { return 0 }
func (s *stubEmbedder) Embed(context.Context, string) ([]float64, error) { return nil, nil }

func TestRegistryGetUnknownBook(t *testing.T) {
	r := NewRegistry(func() domain.Embedder { return &stubEmbedder{} })
	if _, err := r.Get("none"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("got %v, want ErrBookNotFound", err)
	}
}

func TestRegistryNewIsNotVisibleUntilPut(t *testing.T) {
	r := NewRegistry(func() domain.Embedder { return &stubEmbedder{name: "fresh"} })
	e := r.New()
	if _, err := r.Get("b"); !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("embedder visible before Put: %v", err)
	}
	r.Put("b", e)
	got, err := r.Get("b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != e {
		t.Fatal("Get returned a different embedder")
	}
}

func TestRegistryPutReplaces(t *testing.T) {
	r := NewRegistry(func() domain.Embedder { return &stubEmbedder{} })
	first := &stubEmbedder{name: "first"}
	second := &stubEmbedder{name: "second"}
	r.Put("b", first)
	r.Put("b", second)
	got, err := r.Get("b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "second" {
		t.Fatalf("got %q, want second", got.Name())
	}
}
