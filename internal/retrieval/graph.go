package retrieval

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/retrievald/internal/graph"
	"github.com/fyrsmithlabs/retrievald/internal/llm"
	"github.com/fyrsmithlabs/retrievald/internal/vectorstore"
	"go.opentelemetry.io/otel/attribute"
)

// maxGraphHops bounds neighbor expansion from the linked entities.
const maxGraphHops = 2

// GraphRetriever is the knowledge-graph backend. Before ranking, it links
// query terms to entities of the target knowledge bases and expands their
// relation neighborhood; entity names and descriptions then extend the
// lexical side of the blended score, pulling in chunks that talk about
// related entities even when the query never names them.
//
// A knowledge base without a loaded graph degrades to plain dense
// retrieval rather than failing the search.
type GraphRetriever struct {
	store  vectorstore.Store
	graphs graph.Store
}

// NewGraphRetriever creates the knowledge-graph backend.
func NewGraphRetriever(store vectorstore.Store, graphs graph.Store) *GraphRetriever {
	return &GraphRetriever{store: store, graphs: graphs}
}

// Search implements Retriever.
func (g *GraphRetriever) Search(ctx context.Context, p Params) (*ResultSet, error) {
	ctx, span := tracer.Start(ctx, "graph.search")
	defer span.End()

	queryTerms := llm.Tokenize(p.Query)
	terms := append([]string{}, queryTerms...)

	linked := 0
	for _, kbID := range p.KBIDs {
		entities, err := g.graphs.LinkEntities(ctx, kbID, queryTerms)
		if err != nil {
			if errors.Is(err, graph.ErrUnknownKnowledgeBase) {
				continue
			}
			return nil, err
		}
		if len(entities) == 0 {
			continue
		}
		linked += len(entities)

		seeds := make([]string, len(entities))
		for i, e := range entities {
			seeds[i] = e.ID
		}
		neighbors, err := g.graphs.Neighbors(ctx, kbID, seeds, maxGraphHops)
		if err != nil {
			return nil, err
		}

		for _, e := range append(entities, neighbors...) {
			terms = append(terms, llm.Tokenize(e.Name)...)
			terms = append(terms, llm.Tokenize(e.Description)...)
		}
	}
	span.SetAttributes(attribute.Int("entities_linked", linked))

	candidates, err := fetchCandidates(ctx, g.store, p)
	if err != nil {
		return nil, err
	}
	return rank(ctx, p, candidates, dedupe(terms))
}

func dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
