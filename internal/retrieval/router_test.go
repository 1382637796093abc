package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/retrievald/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRetriever records invocations and returns a canned result.
type countingRetriever struct {
	calls int
	err   error
}

func (c *countingRetriever) Search(context.Context, Params) (*ResultSet, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &ResultSet{Chunks: []*Chunk{}, Total: 0}, nil
}

func TestRouterDispatchesByMode(t *testing.T) {
	vec := &countingRetriever{}
	gr := &countingRetriever{}
	r := NewRouter(vec, gr)
	ctx := context.Background()

	_, err := r.Search(ctx, tenant.ModeVector, Params{})
	require.NoError(t, err)
	_, err = r.Search(ctx, tenant.ModeKnowledgeGraph, Params{})
	require.NoError(t, err)

	assert.Equal(t, 1, vec.calls)
	assert.Equal(t, 1, gr.calls)
}

func TestRouterIsDeterministicAcrossPagination(t *testing.T) {
	vec := &countingRetriever{}
	gr := &countingRetriever{}
	r := NewRouter(vec, gr)
	ctx := context.Background()

	for page := 1; page <= 3; page++ {
		_, err := r.Search(ctx, tenant.ModeVector, Params{Page: page})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, vec.calls, "same mode routes to the same backend")
	assert.Zero(t, gr.calls)
}

func TestRouterUnknownMode(t *testing.T) {
	r := NewRouter(&countingRetriever{}, &countingRetriever{})
	_, err := r.Search(context.Background(), tenant.RetrievalMode("bm25"), Params{})
	assert.True(t, errors.Is(err, tenant.ErrInvalidMode))
}

func TestRouterWrapsBackendErrors(t *testing.T) {
	boom := errors.New("index unavailable")
	r := NewRouter(&countingRetriever{err: boom}, &countingRetriever{})
	_, err := r.Search(context.Background(), tenant.ModeVector, Params{})
	assert.True(t, errors.Is(err, ErrBackendFailure))
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name    string
		content string
		terms   []string
		want    string
	}{
		{
			name:    "case insensitive whole words",
			content: "Refund requests and refunds",
			terms:   []string{"refund"},
			want:    "<em>Refund</em> requests and refunds",
		},
		{
			name:    "no match yields empty",
			content: "nothing here",
			terms:   []string{"refund"},
			want:    "",
		},
		{
			name:    "no terms yields empty",
			content: "anything",
			terms:   nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, highlight(tt.content, tt.terms))
		})
	}
}
