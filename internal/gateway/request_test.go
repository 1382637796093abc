package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListAcceptsBothForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want StringList
	}{
		{"single string", `{"kb_id": "kb-a"}`, StringList{"kb-a"}},
		{"list", `{"kb_id": ["kb-a", "kb-b"]}`, StringList{"kb-a", "kb-b"}},
		{"empty list", `{"kb_id": []}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Request
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.KBIDs)
		})
	}

	var req Request
	assert.Error(t, json.Unmarshal([]byte(`{"kb_id": 42}`), &req))
}

func TestNormalizeDefaults(t *testing.T) {
	req := Request{KBIDs: StringList{"kb-a"}, Question: "refund policy"}
	n, err := req.normalize()
	require.NoError(t, err)

	assert.Equal(t, 1, n.Page)
	assert.Equal(t, 30, n.PageSize)
	assert.Equal(t, 0.0, n.Threshold)
	assert.Equal(t, 0.3, n.VectorWeight)
	assert.Equal(t, 1024, n.TopK)
	assert.False(t, n.Keyword)
	assert.False(t, n.Highlight)
}

func TestNormalizeExplicitZeroWeight(t *testing.T) {
	w := 0.0
	req := Request{KBIDs: StringList{"kb-a"}, Question: "q", VectorSimilarityWeight: &w}
	n, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, 0.0, n.VectorWeight, "explicit zero is not replaced by the default")
}

func TestNormalizePageSizeAlias(t *testing.T) {
	req := Request{KBIDs: StringList{"kb-a"}, Question: "q", PageSize: 12}
	n, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, 12, n.PageSize, "page_size works when size is absent")

	req.Size = 5
	n, err = req.normalize()
	require.NoError(t, err)
	assert.Equal(t, 5, n.PageSize, "size wins when both are present")
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"no kb ids", Request{Question: "q"}},
		{"blank kb ids", Request{KBIDs: StringList{"  "}, Question: "q"}},
		{"empty question", Request{KBIDs: StringList{"kb-a"}, Question: "  "}},
		{"negative page", Request{KBIDs: StringList{"kb-a"}, Question: "q", Page: -1}},
		{"negative size", Request{KBIDs: StringList{"kb-a"}, Question: "q", Size: -2}},
		{"negative top_k", Request{KBIDs: StringList{"kb-a"}, Question: "q", TopK: -1}},
		{"weight above one", Request{KBIDs: StringList{"kb-a"}, Question: "q", VectorSimilarityWeight: ptr(1.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.normalize()
			require.Error(t, err)
			assert.Equal(t, KindInvalidRequest, KindOf(err))
		})
	}
}

func ptr(f float64) *float64 { return &f }
