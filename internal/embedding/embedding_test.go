package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHash_Deterministic(t *testing.T) {
	h := NewHash(64)
	a, err := h.Embed(context.Background(), "What are your pricing plans?")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := h.Embed(context.Background(), "What are your pricing plans?")
	if !reflect.DeepEqual(a, b) {
		t.Error("same input should produce the same vector")
	}
}

func TestHash_Normalized(t *testing.T) {
	h := NewHash(128)
	vec, err := h.Embed(context.Background(), "local document processing with privacy controls")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if norm := dot(vec, vec); math.Abs(norm-1) > 1e-4 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestHash_StopwordsIgnored(t *testing.T) {
	h := NewHash(64)
	a, _ := h.Embed(context.Background(), "the pricing of the plans")
	b, _ := h.Embed(context.Background(), "pricing plans")
	if !reflect.DeepEqual(a, b) {
		t.Error("stopwords should not change the vector")
	}
}

func TestHash_EmptyText(t *testing.T) {
	h := NewHash(32)
	vec, err := h.Embed(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 32 {
		t.Fatalf("got %d dims, want 32", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("vec[%d] = %v, want all zeros", i, v)
		}
	}
}

func TestHash_DefaultDims(t *testing.T) {
	vec, _ := NewHash(0).Embed(context.Background(), "hello")
	if len(vec) != DefaultDims {
		t.Errorf("got %d dims, want %d", len(vec), DefaultDims)
	}
}

func TestHash_SharedTokensScoreHigher(t *testing.T) {
	h := NewHash(DefaultDims)
	query, _ := h.Embed(context.Background(), "pricing plans and costs")
	related, _ := h.Embed(context.Background(), "pricing plans")
	unrelated, _ := h.Embed(context.Background(), "webhook delivery retries")
	if dot(query, related) <= dot(query, unrelated) {
		t.Errorf("related score %v should beat unrelated score %v",
			dot(query, related), dot(query, unrelated))
	}
}

func TestNew(t *testing.T) {
	e, err := New(Config{Provider: "hash", Dimensions: 64})
	if err != nil {
		t.Fatalf("New(hash): %v", err)
	}
	if _, ok := e.(*Hash); !ok {
		t.Errorf("got %T, want *Hash", e)
	}

	e, err = New(Config{})
	if err != nil {
		t.Fatalf("New(default): %v", err)
	}
	if _, ok := e.(*Hash); !ok {
		t.Errorf("empty provider should default to *Hash, got %T", e)
	}

	e, err = New(Config{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "nomic-embed-text"})
	if err != nil {
		t.Fatalf("New(ollama): %v", err)
	}
	if _, ok := e.(*Ollama); !ok {
		t.Errorf("got %T, want *Ollama", e)
	}

	if _, err := New(Config{Provider: "bogus"}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestOllama_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Input != "hello" {
			t.Errorf("unexpected request body %+v", req)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "nomic-embed-text")
	vec, err := o.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !reflect.DeepEqual(vec, []float32{0.1, 0.2, 0.3}) {
		t.Errorf("got %v", vec)
	}
}

func TestOllama_EmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewOllama(srv.URL, "missing").Embed(context.Background(), "hello"); err == nil {
		t.Error("expected an error on a 500 response")
	}
}

func TestOllama_IsRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	o := NewOllama(srv.URL, "nomic-embed-text")
	if !o.IsRunning(context.Background()) {
		t.Error("expected IsRunning to be true while the server is up")
	}
	srv.Close()
	if o.IsRunning(context.Background()) {
		t.Error("expected IsRunning to be false after the server stopped")
	}
}
