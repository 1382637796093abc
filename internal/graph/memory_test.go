package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGraph(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.LoadGraph("kb-b",
		[]Entity{
			{ID: "e1", Name: "refund", Description: "money returned to a customer"},
			{ID: "e2", Name: "chargeback", Description: "bank-initiated refund"},
			{ID: "e3", Name: "dispute", Description: "customer challenges a charge"},
			{ID: "e4", Name: "shipping", Description: "order delivery"},
		},
		[]Relation{
			{From: "e1", To: "e2", Type: "related_to"},
			{From: "e2", To: "e3", Type: "caused_by"},
		},
	)
	require.NoError(t, err)
	return s
}

func TestLinkEntities(t *testing.T) {
	s := seedGraph(t)
	ctx := context.Background()

	ents, err := s.LinkEntities(ctx, "kb-b", []string{"Refund", "unknown", "shipping"})
	require.NoError(t, err)
	require.Len(t, ents, 2)
	assert.Equal(t, "e1", ents[0].ID, "matching is case-insensitive")
	assert.Equal(t, "e4", ents[1].ID)
}

func TestNeighborsBoundedByHops(t *testing.T) {
	s := seedGraph(t)
	ctx := context.Background()

	one, err := s.Neighbors(ctx, "kb-b", []string{"e1"}, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "e2", one[0].ID)

	two, err := s.Neighbors(ctx, "kb-b", []string{"e1"}, 2)
	require.NoError(t, err)
	ids := []string{two[0].ID, two[1].ID}
	assert.ElementsMatch(t, []string{"e2", "e3"}, ids)

	zero, err := s.Neighbors(ctx, "kb-b", []string{"e1"}, 0)
	require.NoError(t, err)
	assert.Empty(t, zero)
}

func TestNeighborsFollowsBothDirections(t *testing.T) {
	s := seedGraph(t)

	// e3 only has an incoming edge from e2.
	nbs, err := s.Neighbors(context.Background(), "kb-b", []string{"e3"}, 1)
	require.NoError(t, err)
	require.Len(t, nbs, 1)
	assert.Equal(t, "e2", nbs[0].ID)
}

func TestUnknownKnowledgeBase(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.LinkEntities(context.Background(), "missing", []string{"x"})
	assert.True(t, errors.Is(err, ErrUnknownKnowledgeBase))
}

func TestLoadGraphRejectsDanglingRelations(t *testing.T) {
	s := NewMemoryStore()
	err := s.LoadGraph("kb", []Entity{{ID: "e1", Name: "a"}}, []Relation{{From: "e1", To: "ghost"}})
	assert.Error(t, err)
}
