package keyword

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChat struct {
	response string
	err      error
	calls    int
}

func (s *scriptedChat) Generate(_ context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain terms",
			response: "refund policy returns",
			want:     "refund policy returns",
		},
		{
			name:     "comma separated with label",
			response: "Keywords: refund, policy, returns",
			want:     "refund policy returns",
		},
		{
			name:     "multi-line commentary kept to first line",
			response: "refund policy\nThese keywords summarize the question.",
			want:     "refund policy",
		},
		{
			name:     "quoted and bulleted terms",
			response: `"refund" 'policy' *returns*`,
			want:     "refund policy returns",
		},
		{
			name:     "empty response",
			response: "   \n",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(&scriptedChat{response: tt.response})
			got, err := e.Extract(context.Background(), "what is the refund policy?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCapsTermCount(t *testing.T) {
	terms := strings.Repeat("term ", 30)
	e := NewExtractor(&scriptedChat{response: terms})
	got, err := e.Extract(context.Background(), "question")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(got), maxKeywords)
}

func TestExtractPropagatesModelError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	e := NewExtractor(&scriptedChat{err: wantErr})
	_, err := e.Extract(context.Background(), "question")
	assert.True(t, errors.Is(err, wantErr))
}

func TestAugmentIsAdditive(t *testing.T) {
	got := Augment("refund policy", "returns chargeback")
	assert.True(t, strings.HasPrefix(got, "refund policy"), "original query must stay a prefix")
	assert.Contains(t, got, "returns chargeback")

	assert.Equal(t, "refund policy", Augment("refund policy", ""), "no keywords leaves query unchanged")
}
