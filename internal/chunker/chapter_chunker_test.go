package chunker

import (
	"strings"
	"testing"
)

func TestChunkAssignsChapterNumbers(t *testing.T) {
	c := NewChapterChunker(2, 0, 0)
	text := "Chapter 1\nAlice went home. She slept well. Morning came.\n" +
		"Chapter 2\nBob arrived late. He apologized twice."
	chunks, err := c.Chunk("book", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, ch := range chunks {
		if ch.Chapter != 1 && ch.Chapter != 2 {
			t.Errorf("chunk %s has unexpected chapter %d", ch.ID, ch.Chapter)
		}
		if ch.BookID != "book" {
			t.Errorf("chunk %s has book id %q", ch.ID, ch.BookID)
		}
	}
	if chunks[0].Chapter != 1 || chunks[len(chunks)-1].Chapter != 2 {
		t.Errorf("chunks out of document order: first ch %d, last ch %d",
			chunks[0].Chapter, chunks[len(chunks)-1].Chapter)
	}
}

func TestChunkIDsAreStable(t *testing.T) {
	c := NewChapterChunker(1, 0, 0)
	text := "Chapter 3\nFirst sentence. Second sentence."
	chunks, err := c.Chunk("b", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != "chapter_3_chunk_0" || chunks[1].ID != "chapter_3_chunk_1" {
		t.Errorf("unexpected ids %q, %q", chunks[0].ID, chunks[1].ID)
	}
	if chunks[0].Position != 0 || chunks[1].Position != 1 {
		t.Errorf("unexpected positions %d, %d", chunks[0].Position, chunks[1].Position)
	}
}

func TestChunkOverlapStaysInsideChapter(t *testing.T) {
	c := NewChapterChunker(2, 1, 0)
	text := "Chapter 1\nOne. Two. Three. Four.\nChapter 2\nFive. Six. Seven."
	chunks, err := c.Chunk("b", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	for _, ch := range chunks {
		switch ch.Chapter {
		case 1:
			if strings.Contains(ch.Text, "Five") {
				t.Errorf("chapter 1 chunk leaked chapter 2 text: %q", ch.Text)
			}
		case 2:
			if strings.Contains(ch.Text, "Four") {
				t.Errorf("chapter 2 chunk leaked chapter 1 text: %q", ch.Text)
			}
		}
	}
	// Overlap of one sentence means consecutive chapter-1 chunks share a sentence.
	var ch1 []string
	for _, ch := range chunks {
		if ch.Chapter == 1 {
			ch1 = append(ch1, ch.Text)
		}
	}
	if len(ch1) < 2 {
		t.Fatalf("expected at least 2 chunks in chapter 1, got %d", len(ch1))
	}
	if !strings.Contains(ch1[1], "Two.") {
		t.Errorf("second chunk should start with the overlapped sentence, got %q", ch1[1])
	}
}

func TestChunkNoHeadingFallsBackToChapterOne(t *testing.T) {
	c := NewChapterChunker(5, 0, 0)
	chunks, err := c.Chunk("b", "Just a short story. It has no headings at all.")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, ch := range chunks {
		if ch.Chapter != 1 {
			t.Errorf("chunk %s got chapter %d, want 1", ch.ID, ch.Chapter)
		}
	}
}

func TestChunkDropsShortChapterBodies(t *testing.T) {
	// A table of contents repeats headings with almost no body under them.
	c := NewChapterChunker(5, 0, 40)
	text := "Chapter 1 ... 3\nChapter 2 ... 17\n" +
		"Chapter 1\nThis is the actual opening chapter with a real amount of prose in it."
	chunks, err := c.Chunk("b", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 (TOC entries dropped)", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "actual opening chapter") {
		t.Errorf("kept the wrong section: %q", chunks[0].Text)
	}
}

func TestChunkIgnoresInlineChapterReferences(t *testing.T) {
	c := NewChapterChunker(2, 0, 0)
	text := "Chapter 1\nNick moved east that spring. The bay was quiet.\n" +
		"Chapter 2\nAs I wrote back in Chapter 1, the move changed everything. Daisy called twice."
	chunks, err := c.Chunk("b", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	seen := map[string]int{}
	for _, ch := range chunks {
		seen[ch.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("duplicate chunk id %q produced %d times", id, n)
		}
	}
	found := false
	for _, ch := range chunks {
		if strings.Contains(ch.Text, "wrote back in Chapter 1") {
			found = true
			if ch.Chapter != 2 {
				t.Errorf("back-reference sentence landed in chapter %d, want 2", ch.Chapter)
			}
		}
	}
	if !found {
		t.Fatal("back-reference sentence was lost")
	}
}

func TestChunkRepeatedHeadingKeepsIDsUnique(t *testing.T) {
	c := NewChapterChunker(1, 0, 0)
	text := "Chapter 1\nFirst part. Of the opening.\nChapter 1\nSecond part. Of the opening."
	chunks, err := c.Chunk("b", text)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4", len(chunks))
	}
	seen := map[string]bool{}
	for i, ch := range chunks {
		if ch.Chapter != 1 {
			t.Errorf("chunk %s has chapter %d, want 1", ch.ID, ch.Chapter)
		}
		if ch.Position != i {
			t.Errorf("chunk %s has position %d, want %d", ch.ID, ch.Position, i)
		}
		if seen[ch.ID] {
			t.Errorf("duplicate chunk id %q", ch.ID)
		}
		seen[ch.ID] = true
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := NewChapterChunker(5, 1, 0)
	chunks, err := c.Chunk("b", "   \n\t ")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks for empty text, want 0", len(chunks))
	}
}
