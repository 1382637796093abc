// Package graph stores the entities and relations extracted from a
// knowledge base and serves the traversal queries used by knowledge-graph
// retrieval: entity linking for a query and bounded neighbor expansion.
package graph

import (
	"context"
	"errors"
)

// ErrUnknownKnowledgeBase is returned when no graph exists for a kb id.
var ErrUnknownKnowledgeBase = errors.New("no graph for knowledge base")

// Entity is a named node in a knowledge base's graph.
type Entity struct {
	// ID is unique within the knowledge base.
	ID string `koanf:"id" json:"id"`

	// Name is the surface form used for entity linking.
	Name string `koanf:"name" json:"name"`

	// Description is a short definition carried into query expansion.
	Description string `koanf:"description" json:"description"`
}

// Relation is a directed, typed edge between two entities.
type Relation struct {
	From string `koanf:"from" json:"from"`
	To   string `koanf:"to" json:"to"`
	Type string `koanf:"type" json:"type"`
}

// Store answers graph queries for one or more knowledge bases.
type Store interface {
	// LinkEntities returns the entities of the knowledge base whose names
	// match any of the query terms (case-insensitive whole-name match).
	LinkEntities(ctx context.Context, kbID string, terms []string) ([]Entity, error)

	// Neighbors returns entities reachable from the seeds within maxHops
	// edges, following relations in both directions. Seeds themselves are
	// not included.
	Neighbors(ctx context.Context, kbID string, seedIDs []string, maxHops int) ([]Entity, error)
}
