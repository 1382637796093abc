// Package llm resolves tenant-scoped model handles.
//
// Every model binding is owned by a tenant and registered under a role
// (embedding, rerank, chat). The Registry is the resolution contract used by
// the retrieval gateway; handles are opaque beyond their callable surface.
package llm

import (
	"context"
	"errors"
)

// Role identifies what a model is used for.
type Role string

const (
	RoleEmbedding Role = "embedding"
	RoleRerank    Role = "rerank"
	RoleChat      Role = "chat"
)

// ErrModelNotBound is returned when a tenant has no usable binding for the
// requested role, or when an explicit model name is not registered for the
// tenant under that role.
var ErrModelNotBound = errors.New("model not bound for tenant")

// Embedder turns text into a dense vector.
type Embedder interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores candidate texts against a query. The returned slice has
// one relevance score per input text, in input order.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float32, error)
}

// ChatModel generates a completion for a prompt.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Registry resolves model handles bound to a tenant.
//
// An empty name selects the tenant's default binding for the role. A
// non-empty name must match a registered binding exactly; otherwise the
// resolution fails with ErrModelNotBound.
type Registry interface {
	Embedder(ctx context.Context, tenantID, name string) (Embedder, error)
	Reranker(ctx context.Context, tenantID, name string) (Reranker, error)
	Chat(ctx context.Context, tenantID, name string) (ChatModel, error)
}
