package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
)

// ChromemConfig holds configuration for the embedded chromem store.
type ChromemConfig struct {
	// Path is the persistence directory. Empty keeps everything in memory,
	// which is what tests and ephemeral deployments want.
	Path string `koanf:"path"`

	// Compress enables gzip compression of persisted collections.
	Compress bool `koanf:"compress"`
}

// ChromemStore is an embedded Store backed by chromem-go. It needs no
// external service, which makes it the local-mode and test driver.
type ChromemStore struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemStore creates a chromem-backed store.
func NewChromemStore(config ChromemConfig) (*ChromemStore, error) {
	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := expandPath(config.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
		db, err = chromem.NewPersistentDB(path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}
	return &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// getOrCreateCollection returns the named collection, creating it on first
// use. Chunks arrive pre-embedded, so the embedding func is never invoked;
// it exists to satisfy chromem's constructor.
func (s *ChromemStore) getOrCreateCollection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, func(_ context.Context, _ string) ([]float32, error) {
		return nil, fmt.Errorf("store operates on pre-computed vectors")
	})
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

// Search implements Store.
//
// chromem's metadata filter is a single exact-match map, which cannot
// express an id allow-list, so the doc-id filter is applied on the result
// set after an over-fetch.
func (s *ChromemStore) Search(ctx context.Context, collection string, vector []float32, limit int, docIDs []string) ([]Hit, error) {
	s.mu.Lock()
	c, ok := s.collections[collection]
	if !ok {
		if c = s.db.GetCollection(collection, nil); c != nil {
			s.collections[collection] = c
		}
	}
	s.mu.Unlock()
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	count := c.Count()
	if count == 0 {
		return []Hit{}, nil
	}

	n := limit
	if len(docIDs) > 0 {
		// Over-fetch so post-hoc filtering can still fill the limit.
		n = count
	}
	if n > count {
		n = count
	}

	results, err := c.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}

	allowed := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		allowed[id] = true
	}

	hits := make([]Hit, 0, limit)
	for _, r := range results {
		docID := r.Metadata[payloadDocumentID]
		if len(allowed) > 0 && !allowed[docID] {
			continue
		}
		hit := Hit{Score: r.Similarity}
		hit.ID = r.ID
		hit.Content = r.Content
		hit.DocumentID = docID
		hit.DocumentName = r.Metadata[payloadDocumentName]
		if kw := r.Metadata[payloadKeywords]; kw != "" {
			hit.ImportantKeywords = strings.Split(kw, ",")
		}
		hit.Vector = r.Embedding
		hits = append(hits, hit)
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Upsert implements Store.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	c, err := s.getOrCreateCollection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]string{
			payloadDocumentID:   chunk.DocumentID,
			payloadDocumentName: chunk.DocumentName,
		}
		if len(chunk.ImportantKeywords) > 0 {
			meta[payloadKeywords] = strings.Join(chunk.ImportantKeywords, ",")
		}
		docs[i] = chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Metadata:  meta,
			Embedding: chunk.Vector,
		}
	}

	if err := c.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding chunks to %s: %w", collection, err)
	}
	return nil
}

// Close implements Store. The embedded DB has no connection to release.
func (s *ChromemStore) Close() error {
	return nil
}
