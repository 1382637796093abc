package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// kbGraph holds one knowledge base's entities and adjacency.
type kbGraph struct {
	entities map[string]Entity   // entity id -> entity
	byName   map[string][]string // lowercased name -> entity ids
	adjacent map[string][]string // entity id -> neighbor ids (both directions)
}

// MemoryStore is an in-process Store. Graphs are loaded whole per knowledge
// base and read-only afterwards; a RWMutex covers reload during operation.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*kbGraph
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*kbGraph)}
}

// LoadGraph replaces the graph for a knowledge base.
func (s *MemoryStore) LoadGraph(kbID string, entities []Entity, relations []Relation) error {
	g := &kbGraph{
		entities: make(map[string]Entity, len(entities)),
		byName:   make(map[string][]string, len(entities)),
		adjacent: make(map[string][]string),
	}
	for _, e := range entities {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("entity requires id and name")
		}
		g.entities[e.ID] = e
		key := strings.ToLower(e.Name)
		g.byName[key] = append(g.byName[key], e.ID)
	}
	for _, r := range relations {
		if _, ok := g.entities[r.From]; !ok {
			return fmt.Errorf("relation references unknown entity %q", r.From)
		}
		if _, ok := g.entities[r.To]; !ok {
			return fmt.Errorf("relation references unknown entity %q", r.To)
		}
		g.adjacent[r.From] = append(g.adjacent[r.From], r.To)
		g.adjacent[r.To] = append(g.adjacent[r.To], r.From)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[kbID] = g
	return nil
}

// LinkEntities implements Store.
func (s *MemoryStore) LinkEntities(_ context.Context, kbID string, terms []string) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[kbID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKnowledgeBase, kbID)
	}

	seen := make(map[string]bool)
	var out []Entity
	for _, term := range terms {
		for _, id := range g.byName[strings.ToLower(term)] {
			if !seen[id] {
				seen[id] = true
				out = append(out, g.entities[id])
			}
		}
	}
	return out, nil
}

// Neighbors implements Store. Breadth-first expansion with a visited set,
// bounded by maxHops.
func (s *MemoryStore) Neighbors(_ context.Context, kbID string, seedIDs []string, maxHops int) ([]Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[kbID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKnowledgeBase, kbID)
	}

	visited := make(map[string]bool, len(seedIDs))
	for _, id := range seedIDs {
		visited[id] = true
	}

	frontier := seedIDs
	var out []Entity
	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for _, nb := range g.adjacent[id] {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				out = append(out, g.entities[nb])
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return out, nil
}
