// Package knowledge loads markdown documents from a directory, embeds them,
// and answers ID lookups and similarity queries over the stored vectors.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vahanai/docsbot/internal/embedding"
	"github.com/vahanai/docsbot/internal/storage"
)

// Document is one knowledge base entry.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Match is a document scored against a query.
type Match struct {
	Document
	Score float32
}

// Store answers document lookups and similarity queries.
type Store struct {
	store    *storage.Store
	embedder embedding.Embedder
	log      *slog.Logger
}

// New creates a knowledge store over the given storage and embedder.
func New(store *storage.Store, embedder embedding.Embedder, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{store: store, embedder: embedder, log: log}
}

// embedConcurrency bounds parallel embedding calls during Load.
const embedConcurrency = 4

// Load reads every .md file in dir, embeds the contents, and replaces the
// stored document set. A missing directory is created and left empty. Files
// that are empty or unreadable are skipped with a warning; Load fails only
// when documents exist and none of them could be embedded.
func (s *Store) Load(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating knowledge directory: %w", err)
		}
		s.log.Warn("created empty knowledge base directory", "dir", dir)
		return s.store.ReplaceDocuments(nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading knowledge directory: %w", err)
	}

	type candidate struct {
		id      string
		source  string
		content string
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			s.log.Error("failed to read knowledge file", "file", entry.Name(), "error", err)
			continue
		}
		content := string(raw)
		if strings.TrimSpace(content) == "" {
			s.log.Warn("skipped empty file", "file", entry.Name())
			continue
		}
		candidates = append(candidates, candidate{
			id:      strings.TrimSuffix(entry.Name(), ".md"),
			source:  entry.Name(),
			content: content,
		})
	}

	// Embed concurrently; each index is owned by exactly one goroutine.
	records := make([]storage.DocumentRecord, len(candidates))
	failed := make([]bool, len(candidates))

	var mu sync.Mutex
	var embedErrs int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, c.content)
			if err != nil {
				s.log.Error("failed to embed document", "file", c.source, "error", err)
				mu.Lock()
				embedErrs++
				mu.Unlock()
				failed[i] = true
				return nil
			}
			records[i] = storage.DocumentRecord{ID: c.id, Source: c.source, Content: c.content, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var docs []storage.DocumentRecord
	for i := range records {
		if !failed[i] {
			docs = append(docs, records[i])
		}
	}
	if len(candidates) > 0 && len(docs) == 0 && embedErrs > 0 {
		return fmt.Errorf("embedding failed for all %d documents", len(candidates))
	}

	if err := s.store.ReplaceDocuments(docs); err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}
	s.log.Info("loaded knowledge documents", "count", len(docs))
	return nil
}

// Get returns the document with the given ID. Returns storage.ErrNotFound
// when it does not exist.
func (s *Store) Get(id string) (Document, error) {
	rec, err := s.store.GetDocument(id)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: rec.ID, Source: rec.Source, Content: rec.Content}, nil
}

// Query embeds text and returns the topK most similar documents, best
// first.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	scored, err := s.store.SearchDocuments(vec, topK)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, len(scored))
	for i, sd := range scored {
		matches[i] = Match{
			Document: Document{ID: sd.ID, Source: sd.Source, Content: sd.Content},
			Score:    sd.Score,
		}
	}
	return matches, nil
}

// Count returns the number of loaded documents.
func (s *Store) Count() (int, error) {
	return s.store.CountDocuments()
}
