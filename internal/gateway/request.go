package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request defaults, matching the public retrieval API contract.
const (
	DefaultPage         = 1
	DefaultPageSize     = 30
	DefaultVectorWeight = 0.3
	DefaultTopK         = 1024
)

// StringList accepts a JSON string or array of strings. The single-string
// form is normalized to a one-element list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("kb_id must be a string or a list of strings")
	}
	*s = StringList(many)
	return nil
}

// Request is the transient per-call value object handed to Retrieve. It is
// immutable once normalized; the pipeline never writes it back.
type Request struct {
	KBIDs    StringList `json:"kb_id"`
	Question string     `json:"question"`
	Page     int        `json:"page"`
	Size     int        `json:"size"`
	PageSize int        `json:"page_size"`
	DocIDs   []string   `json:"doc_ids"`

	SimilarityThreshold    float64  `json:"similarity_threshold"`
	VectorSimilarityWeight *float64 `json:"vector_similarity_weight"`
	TopK                   int      `json:"top_k"`

	RerankID  string `json:"rerank_id"`
	Keyword   bool   `json:"keyword"`
	Highlight bool   `json:"highlight"`
}

// normalized is the defaulted, validated form consumed by the pipeline.
type normalized struct {
	KBIDs        []string
	Question     string
	Page         int
	PageSize     int
	DocIDs       []string
	Threshold    float64
	VectorWeight float64
	TopK         int
	RerankID     string
	Keyword      bool
	Highlight    bool
}

// normalize applies defaults and validates the request. Zero values for
// pagination and top_k mean "not supplied" and take their defaults;
// negative values are rejected.
func (r Request) normalize() (normalized, error) {
	n := normalized{
		Question:  strings.TrimSpace(r.Question),
		Page:      r.Page,
		PageSize:  r.Size,
		DocIDs:    r.DocIDs,
		Threshold: r.SimilarityThreshold,
		TopK:      r.TopK,
		RerankID:  r.RerankID,
		Keyword:   r.Keyword,
		Highlight: r.Highlight,
	}

	for _, id := range r.KBIDs {
		if id = strings.TrimSpace(id); id != "" {
			n.KBIDs = append(n.KBIDs, id)
		}
	}
	if len(n.KBIDs) == 0 {
		return n, invalidRequest("kb_id is required")
	}
	if n.Question == "" {
		return n, invalidRequest("question is required")
	}

	if n.PageSize == 0 {
		n.PageSize = r.PageSize
	}
	if n.Page == 0 {
		n.Page = DefaultPage
	}
	if n.PageSize == 0 {
		n.PageSize = DefaultPageSize
	}
	if n.Page < 1 {
		return n, invalidRequest("page must be >= 1, got %d", n.Page)
	}
	if n.PageSize < 1 {
		return n, invalidRequest("page size must be >= 1, got %d", n.PageSize)
	}

	if r.VectorSimilarityWeight != nil {
		n.VectorWeight = *r.VectorSimilarityWeight
	} else {
		n.VectorWeight = DefaultVectorWeight
	}
	if n.VectorWeight < 0 || n.VectorWeight > 1 {
		return n, invalidRequest("vector_similarity_weight must be in [0,1], got %g", n.VectorWeight)
	}

	if n.TopK == 0 {
		n.TopK = DefaultTopK
	}
	if n.TopK < 1 {
		return n, invalidRequest("top_k must be >= 1, got %d", n.TopK)
	}

	return n, nil
}
