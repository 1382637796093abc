// Package tenant models multi-tenant ownership of knowledge bases.
//
// A caller may belong to any number of tenants; a knowledge base has exactly
// one owning tenant. The Memberships and Index interfaces are the contract
// consumed by the retrieval gateway; Directory is the in-process
// implementation loaded from configuration.
package tenant

import (
	"context"
	"errors"
	"fmt"
)

// RetrievalMode selects the retrieval backend for a knowledge base.
type RetrievalMode string

const (
	// ModeVector routes retrieval to dense similarity search.
	ModeVector RetrievalMode = "vector"
	// ModeKnowledgeGraph routes retrieval through entity/relation traversal.
	ModeKnowledgeGraph RetrievalMode = "knowledge-graph"
)

// Valid reports whether the mode is one of the two known variants.
func (m RetrievalMode) Valid() bool {
	return m == ModeVector || m == ModeKnowledgeGraph
}

// Common errors.
var (
	ErrKnowledgeBaseNotFound = errors.New("knowledge base not found")
	ErrInvalidMode           = errors.New("invalid retrieval mode")
	ErrDuplicateID           = errors.New("duplicate identifier")
)

// KnowledgeBase is the read-only configuration record for one knowledge base.
// Lifecycle (create/update/delete) belongs to the management plane; the
// gateway only reads these records to authorize and route.
type KnowledgeBase struct {
	ID             string        `koanf:"id" json:"id"`
	Name           string        `koanf:"name" json:"name"`
	TenantID       string        `koanf:"tenant_id" json:"tenant_id"`
	EmbeddingModel string        `koanf:"embedding_model" json:"embedding_model"`
	Mode           RetrievalMode `koanf:"mode" json:"mode"`
	Deleted        bool          `koanf:"deleted" json:"deleted"`
}

// Validate checks the record is well formed.
func (kb *KnowledgeBase) Validate() error {
	if kb.ID == "" {
		return fmt.Errorf("knowledge base id required")
	}
	if kb.TenantID == "" {
		return fmt.Errorf("knowledge base %s: tenant id required", kb.ID)
	}
	if kb.Mode == "" {
		kb.Mode = ModeVector
	}
	if !kb.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, kb.Mode)
	}
	return nil
}

// Memberships resolves the tenants a caller belongs to.
//
// An unknown caller is not an error: implementations return an empty slice.
type Memberships interface {
	TenantsOf(ctx context.Context, callerID string) ([]string, error)
}

// Index answers ownership questions and serves knowledge base records.
type Index interface {
	// OwnedBy reports whether tenantID owns kbID. Exact id equality,
	// no partial-match semantics. Soft-deleted knowledge bases are not owned.
	OwnedBy(ctx context.Context, tenantID, kbID string) (bool, error)

	// Find returns the knowledge base record for kbID, or
	// ErrKnowledgeBaseNotFound when the id is unknown or soft-deleted.
	Find(ctx context.Context, kbID string) (*KnowledgeBase, error)
}
