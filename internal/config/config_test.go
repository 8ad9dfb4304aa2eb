package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr %q", cfg.Server.Addr)
	}
	if cfg.Embedder.Type != "tfidf" {
		t.Errorf("default embedder %q", cfg.Embedder.Type)
	}
	if cfg.Retriever.TopK != 5 {
		t.Errorf("default top_k %d", cfg.Retriever.TopK)
	}
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  addr: \":9090\"\nembedder:\n  type: gemini\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Embedder.Gemini == nil || cfg.Embedder.Gemini.Model != "text-embedding-004" {
		t.Errorf("gemini defaults not applied: %+v", cfg.Embedder.Gemini)
	}
	if cfg.Chunker.SentencesPerChunk != 5 {
		t.Errorf("chunker default not applied: %d", cfg.Chunker.SentencesPerChunk)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Server.Addr = ":7070"
	cfg.Index.Type = "qdrant"
	cfg.Index.Qdrant = &QdrantConfig{URL: "http://localhost:6333"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Addr != ":7070" {
		t.Errorf("addr %q, want :7070", loaded.Server.Addr)
	}
	if loaded.Index.Type != "qdrant" || loaded.Index.Qdrant == nil {
		t.Errorf("qdrant section lost: %+v", loaded.Index)
	}
	if loaded.Index.Qdrant.CollectionPrefix != "bookshield" {
		t.Errorf("qdrant prefix default not applied: %q", loaded.Index.Qdrant.CollectionPrefix)
	}
}
