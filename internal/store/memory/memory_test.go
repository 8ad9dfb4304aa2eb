package memory

import (
	"context"
	"errors"
	"testing"

	"bookshield/internal/domain"
)

func TestChunksUpToFiltersByChapter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	chunks := []domain.Chunk{
		{ID: "chapter_1_chunk_0", Chapter: 1},
		{ID: "chapter_4_chunk_0", Chapter: 4},
		{ID: "chapter_8_chunk_0", Chapter: 8},
	}
	if err := s.Save(ctx, "b", chunks); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.ChunksUpTo(ctx, "b", 4)
	if err != nil {
		t.Fatalf("ChunksUpTo: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	for _, c := range got {
		if c.Chapter > 4 {
			t.Errorf("chunk %s exceeds bound", c.ID)
		}
	}
}

func TestChunksUpToUnknownBook(t *testing.T) {
	s := NewStore()
	_, err := s.ChunksUpTo(context.Background(), "missing", 2)
	if !errors.Is(err, domain.ErrBookNotFound) {
		t.Fatalf("got %v, want ErrBookNotFound", err)
	}
}

func TestBooksListsSortedIDs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, id := range []string{"zeta", "alpha"} {
		if err := s.Save(ctx, id, []domain.Chunk{{ID: "chapter_1_chunk_0", Chapter: 1}}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	ids, err := s.Books(ctx)
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Fatalf("got %v, want [alpha zeta]", ids)
	}
}

func TestSaveCopiesInput(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	chunks := []domain.Chunk{{ID: "chapter_1_chunk_0", Chapter: 1, Text: "original"}}
	if err := s.Save(ctx, "b", chunks); err != nil {
		t.Fatalf("Save: %v", err)
	}
	chunks[0].Text = "mutated"
	got, err := s.ChunksUpTo(ctx, "b", 1)
	if err != nil {
		t.Fatalf("ChunksUpTo: %v", err)
	}
	if got[0].Text != "original" {
		t.Fatal("store shares memory with the caller's slice")
	}
}
