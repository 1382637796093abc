// Package retrieval implements the two retrieval backends and the router
// that dispatches between them based on a knowledge base's configured mode.
//
// Both backends accept the same Params tuple and return a ResultSet ranked
// by a blended score: (1-w)·term_similarity + w·vector_similarity, where w
// is the request's vector blend weight. Reranking, highlighting, doc-id
// filtering, and pagination behave identically across backends.
package retrieval

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/retrievald/internal/llm"
)

// ErrBackendFailure wraps backend search errors so callers can classify
// them without knowing which driver ran the query.
var ErrBackendFailure = errors.New("retrieval backend failure")

// Params is the uniform parameter tuple passed to a backend.
type Params struct {
	// Query is the (possibly keyword-augmented) query text.
	Query string

	// Embedder is the tenant's resolved embedding model handle.
	Embedder llm.Embedder

	// TenantID is the owning tenant of the primary knowledge base.
	TenantID string

	// KBIDs are the target knowledge bases, in request order.
	KBIDs []string

	// Page and PageSize select the result window, 1-based.
	Page     int
	PageSize int

	// SimilarityThreshold drops chunks whose blended score is below it.
	SimilarityThreshold float64

	// VectorWeight blends vector similarity against term similarity.
	VectorWeight float64

	// TopK caps the candidates fetched per knowledge base before ranking.
	TopK int

	// DocIDs optionally restricts results to these documents.
	DocIDs []string

	// Reranker optionally re-scores the lexical side of the blend.
	Reranker llm.Reranker

	// Highlight annotates matched query terms in the results.
	Highlight bool
}

// Chunk is one ranked result record. The JSON field names follow the wire
// contract of the retrieval API.
type Chunk struct {
	ID                string   `json:"chunk_id"`
	Content           string   `json:"content_with_weight"`
	KBID              string   `json:"kb_id"`
	DocumentID        string   `json:"doc_id"`
	DocumentName      string   `json:"docnm_kwd"`
	ImportantKeywords []string `json:"important_kwd,omitempty"`
	Similarity        float64  `json:"similarity"`
	VectorSimilarity  float64  `json:"vector_similarity"`
	TermSimilarity    float64  `json:"term_similarity"`
	Highlight         string   `json:"highlight,omitempty"`

	// Vector is internal-only and must never leave the system; the
	// sanitizer strips it before the result set is returned.
	Vector []float32 `json:"vector,omitempty"`
}

// ResultSet is an ordered page of chunks plus the total match count before
// pagination.
type ResultSet struct {
	Chunks []*Chunk `json:"chunks"`
	Total  int      `json:"total"`
}

// Retriever is the capability both backends satisfy.
type Retriever interface {
	Search(ctx context.Context, p Params) (*ResultSet, error)
}

// Sanitize removes the internal vector field from every chunk. All other
// fields pass through unchanged. Idempotent: sanitizing an already-clean
// result set is a no-op. The set is mutated in place and returned for
// chaining.
func Sanitize(rs *ResultSet) *ResultSet {
	if rs == nil {
		return nil
	}
	for _, c := range rs.Chunks {
		c.Vector = nil
	}
	return rs
}
