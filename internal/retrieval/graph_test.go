package retrieval

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/retrievald/internal/graph"
	"github.com/fyrsmithlabs/retrievald/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphStore(t *testing.T) *graph.MemoryStore {
	t.Helper()
	gs := graph.NewMemoryStore()
	require.NoError(t, gs.LoadGraph("kb-b",
		[]graph.Entity{
			{ID: "e1", Name: "refund", Description: "money returned"},
			{ID: "e2", Name: "chargeback", Description: "bank initiated reversal"},
		},
		[]graph.Relation{{From: "e1", To: "e2", Type: "related_to"}},
	))
	return gs
}

func TestGraphSearchExpandsEntityTerms(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectorstore.Hit{
		"kb_kb_b": {
			// Mentions only the neighbor entity, never the query terms.
			hit("c1", "chargeback reversal initiated by the bank", "d1", 0.4),
			hit("c2", "weather forecast for tomorrow", "d1", 0.4),
		},
	}}
	g := NewGraphRetriever(store, graphStore(t))

	p := baseParams()
	p.Query = "refund"
	p.KBIDs = []string{"kb-b"}
	rs, err := g.Search(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, rs.Chunks, 2)

	// Equal vector scores; the chargeback chunk wins on the expanded terms.
	assert.Equal(t, "c1", rs.Chunks[0].ID)
	assert.Greater(t, rs.Chunks[0].Similarity, rs.Chunks[1].Similarity)
}

func TestGraphSearchDegradesWithoutGraph(t *testing.T) {
	store := &fakeStore{hits: map[string][]vectorstore.Hit{
		"kb_kb_x": {hit("c1", "refund policy", "d1", 0.8)},
	}}
	g := NewGraphRetriever(store, graph.NewMemoryStore())

	p := baseParams()
	p.KBIDs = []string{"kb-x"}
	rs, err := g.Search(context.Background(), p)
	require.NoError(t, err, "missing graph falls back to dense retrieval")
	require.Len(t, rs.Chunks, 1)
	assert.Equal(t, "c1", rs.Chunks[0].ID)
}
