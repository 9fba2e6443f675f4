// Package embedding turns text into fixed-width vectors for similarity
// search. The default provider hashes token features locally so the server
// works with no external services; an Ollama-backed provider is available
// for higher-quality semantic vectors.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces a vector representation of a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider   string
	Dimensions int
	BaseURL    string
	Model      string
}

// New builds the embedder named by cfg.Provider. An empty provider selects
// the hashing embedder.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return NewHash(cfg.Dimensions), nil
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
