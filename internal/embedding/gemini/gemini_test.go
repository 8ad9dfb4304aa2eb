package gemini

import "testing"

func TestCloneSharesClientNotState(t *testing.T) {
	e := &Embedder{model: "text-embedding-004", dimension: 768}
	c := e.Clone()
	if c == e {
		t.Fatal("Clone returned the same instance")
	}
	if c.model != e.model {
		t.Fatalf("model %q, want %q", c.model, e.model)
	}
	if c.client != e.client {
		t.Fatal("Clone must share the underlying client")
	}
	if c.dimension != 0 {
		t.Fatalf("clone inherited dimension %d, want 0", c.dimension)
	}
}
