package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct{ name string }

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type fakeChat struct{}

func (f *fakeChat) Generate(context.Context, string) (string, error) { return "ok", nil }

func TestStaticRegistryDefaults(t *testing.T) {
	ctx := context.Background()
	r := NewStaticRegistry()
	r.RegisterEmbedder("t1", "bge-small", &fakeEmbedder{name: "bge-small"}, true)
	r.RegisterEmbedder("t1", "bge-large", &fakeEmbedder{name: "bge-large"}, false)

	// Empty name resolves the default binding.
	h, err := r.Embedder(ctx, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, "bge-small", h.(*fakeEmbedder).name)

	// Explicit name resolves exactly.
	h, err = r.Embedder(ctx, "t1", "bge-large")
	require.NoError(t, err)
	assert.Equal(t, "bge-large", h.(*fakeEmbedder).name)
}

func TestStaticRegistryNotBound(t *testing.T) {
	ctx := context.Background()
	r := NewStaticRegistry()
	r.RegisterEmbedder("t1", "bge-small", &fakeEmbedder{}, true)

	tests := []struct {
		name     string
		tenantID string
		model    string
	}{
		{"unknown tenant", "t2", ""},
		{"unknown model name", "t1", "missing-model"},
		{"no default for role", "t1", ""},
	}

	_, err := r.Reranker(ctx, "t1", "")
	assert.True(t, errors.Is(err, ErrModelNotBound))

	for _, tt := range tests[:2] {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Embedder(ctx, tt.tenantID, tt.model)
			assert.True(t, errors.Is(err, ErrModelNotBound))
		})
	}
}

func TestStaticRegistryTenantScoping(t *testing.T) {
	ctx := context.Background()
	r := NewStaticRegistry()
	r.RegisterChat("t1", "gpt-4o-mini", &fakeChat{}, true)

	// A binding registered for t1 is invisible to t2, even by exact name.
	_, err := r.Chat(ctx, "t2", "gpt-4o-mini")
	assert.True(t, errors.Is(err, ErrModelNotBound))

	_, err = r.Chat(ctx, "t1", "gpt-4o-mini")
	assert.NoError(t, err)
}

func TestTermOverlapReranker(t *testing.T) {
	ctx := context.Background()
	r := NewTermOverlapReranker()

	scores, err := r.Rerank(ctx, "refund policy", []string{
		"our refund policy allows returns within 30 days",
		"shipping rates for international orders",
		"policy documents",
	})
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, float32(1.0), scores[0], "both query terms present")
	assert.Equal(t, float32(0.0), scores[1], "no query terms present")
	assert.Equal(t, float32(0.5), scores[2], "one of two query terms present")
}

func TestTermOverlapRerankerEmptyQuery(t *testing.T) {
	scores, err := NewTermOverlapReranker().Rerank(context.Background(), "   ", []string{"text"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, scores)
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("How do I reset the API_token for my account?")
	assert.Equal(t, []string{"reset", "api_token", "account"}, tokens)
}
