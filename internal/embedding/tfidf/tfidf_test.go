package tfidf

import (
	"context"
	"math"
	"testing"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error embedding before Prepare")
	}
}

func TestPrepareEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
}

func TestEmbedDeterministic(t *testing.T) {
	corpus := []string{
		"the cat sat on the mat",
		"the dog chased the cat",
		"birds fly south in winter",
	}
	e := NewEmbedder()
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	v1, err := e.Embed(context.Background(), "cat on mat")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := e.Embed(context.Background(), "cat on mat")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v1) != e.Dimension() {
		t.Fatalf("vector length %d != dimension %d", len(v1), e.Dimension())
	}
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("embedding not deterministic at %d: %v vs %v", i, v1[i], v2[i])
		}
	}
}

func TestEmbedNormalized(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"alpha beta gamma", "beta gamma delta"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	vec, err := e.Embed(context.Background(), "beta delta")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Fatalf("vector not L2-normalized: norm %v", math.Sqrt(norm))
	}
}

func TestEmbedOutOfVocabularyIsZero(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"alpha beta", "gamma delta"}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	vec, err := e.Embed(context.Background(), "zeppelin xylophone")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v at %d", v, i)
		}
	}
}

func TestRarerTermsWeighMore(t *testing.T) {
	corpus := []string{
		"ocean waves ocean tide",
		"ocean storm",
		"ocean calm lighthouse",
	}
	e := NewEmbedder()
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	vec, err := e.Embed(context.Background(), "ocean lighthouse")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	common := vec[e.vocabulary["ocean"]]
	rare := vec[e.vocabulary["lighthouse"]]
	if rare <= common {
		t.Fatalf("rare term should outweigh common term: lighthouse=%v ocean=%v", rare, common)
	}
}
