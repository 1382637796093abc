// Package vectorstore defines the chunk storage interface consumed by the
// retrieval backends, with Qdrant (gRPC) and chromem (embedded) drivers.
//
// One collection holds the chunks of one knowledge base; CollectionForKB
// derives the collection name from the knowledge base id. Stores work on
// vectors only — query embedding is the caller's concern, so the tenant's
// model binding stays in control of how text becomes a vector.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the backing store is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// Chunk is a stored document fragment.
type Chunk struct {
	// ID is the chunk identifier, unique within its collection.
	ID string

	// Content is the chunk text.
	Content string

	// DocumentID identifies the source document.
	DocumentID string

	// DocumentName is the display name of the source document.
	DocumentName string

	// ImportantKeywords are curated lexical terms attached at ingestion.
	ImportantKeywords []string

	// Vector is the chunk embedding.
	Vector []float32
}

// Hit is one nearest-neighbor match.
type Hit struct {
	Chunk

	// Score is the cosine similarity to the query vector, in [0,1].
	Score float32
}

// Store is the vector search surface used by the retrieval backends.
type Store interface {
	// Search returns up to limit nearest chunks for the query vector from
	// the named collection. When docIDs is non-empty, only chunks from
	// those documents are considered. Results are ordered by similarity,
	// highest first, and include chunk vectors.
	Search(ctx context.Context, collection string, vector []float32, limit int, docIDs []string) ([]Hit, error)

	// Upsert writes chunks into the named collection, creating it with the
	// given vector size when missing.
	Upsert(ctx context.Context, collection string, chunks []Chunk) error

	// Close releases the store's resources.
	Close() error
}
