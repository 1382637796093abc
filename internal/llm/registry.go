package llm

import (
	"context"
	"fmt"
	"sync"
)

// StaticRegistry is an in-process Registry. Bindings are keyed by tenant,
// role, and model name; each tenant/role pair may carry one default binding
// used when the caller supplies no explicit name.
type StaticRegistry struct {
	mu       sync.RWMutex
	bindings map[bindingKey]any
	defaults map[defaultKey]string
}

type bindingKey struct {
	tenantID string
	role     Role
	name     string
}

type defaultKey struct {
	tenantID string
	role     Role
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		bindings: make(map[bindingKey]any),
		defaults: make(map[defaultKey]string),
	}
}

// RegisterEmbedder binds an embedding model to a tenant.
func (r *StaticRegistry) RegisterEmbedder(tenantID, name string, h Embedder, isDefault bool) {
	r.register(tenantID, RoleEmbedding, name, h, isDefault)
}

// RegisterReranker binds a rerank model to a tenant.
func (r *StaticRegistry) RegisterReranker(tenantID, name string, h Reranker, isDefault bool) {
	r.register(tenantID, RoleRerank, name, h, isDefault)
}

// RegisterChat binds a chat model to a tenant.
func (r *StaticRegistry) RegisterChat(tenantID, name string, h ChatModel, isDefault bool) {
	r.register(tenantID, RoleChat, name, h, isDefault)
}

func (r *StaticRegistry) register(tenantID string, role Role, name string, h any, isDefault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[bindingKey{tenantID, role, name}] = h
	if isDefault {
		r.defaults[defaultKey{tenantID, role}] = name
	}
}

// lookup resolves a binding, falling back to the tenant's default for the
// role when name is empty.
func (r *StaticRegistry) lookup(tenantID string, role Role, name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		def, ok := r.defaults[defaultKey{tenantID, role}]
		if !ok {
			return nil, fmt.Errorf("%w: tenant %s has no default %s model", ErrModelNotBound, tenantID, role)
		}
		name = def
	}

	h, ok := r.bindings[bindingKey{tenantID, role, name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s model %q not registered for tenant %s", ErrModelNotBound, role, name, tenantID)
	}
	return h, nil
}

// Embedder implements Registry.
func (r *StaticRegistry) Embedder(_ context.Context, tenantID, name string) (Embedder, error) {
	h, err := r.lookup(tenantID, RoleEmbedding, name)
	if err != nil {
		return nil, err
	}
	return h.(Embedder), nil
}

// Reranker implements Registry.
func (r *StaticRegistry) Reranker(_ context.Context, tenantID, name string) (Reranker, error) {
	h, err := r.lookup(tenantID, RoleRerank, name)
	if err != nil {
		return nil, err
	}
	return h.(Reranker), nil
}

// Chat implements Registry.
func (r *StaticRegistry) Chat(_ context.Context, tenantID, name string) (ChatModel, error) {
	h, err := r.lookup(tenantID, RoleChat, name)
	if err != nil {
		return nil, err
	}
	return h.(ChatModel), nil
}
