package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/retrievald/internal/llm"
	"github.com/fyrsmithlabs/retrievald/internal/vectorstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("retrievald.retrieval")

// VectorRetriever is the dense-similarity backend. It embeds the query with
// the tenant's embedding handle, fetches nearest chunks per knowledge base,
// and ranks candidates by the blended lexical/vector score.
type VectorRetriever struct {
	store vectorstore.Store
}

// NewVectorRetriever creates the vector backend over a chunk store.
func NewVectorRetriever(store vectorstore.Store) *VectorRetriever {
	return &VectorRetriever{store: store}
}

// Search implements Retriever.
func (v *VectorRetriever) Search(ctx context.Context, p Params) (*ResultSet, error) {
	ctx, span := tracer.Start(ctx, "vector.search")
	defer span.End()
	span.SetAttributes(attribute.Int("kb_count", len(p.KBIDs)))

	candidates, err := fetchCandidates(ctx, v.store, p)
	if err != nil {
		return nil, err
	}
	return rank(ctx, p, candidates, llm.Tokenize(p.Query))
}

// fetchCandidates runs the nearest-neighbor fetch for every target
// knowledge base and tags each hit with its kb id.
func fetchCandidates(ctx context.Context, store vectorstore.Store, p Params) ([]*Chunk, error) {
	vector, err := p.Embedder.EmbedQuery(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var candidates []*Chunk
	for _, kbID := range p.KBIDs {
		hits, err := store.Search(ctx, vectorstore.CollectionForKB(kbID), vector, p.TopK, p.DocIDs)
		if err != nil {
			return nil, fmt.Errorf("knowledge base %s: %w", kbID, err)
		}
		for _, h := range hits {
			candidates = append(candidates, &Chunk{
				ID:                h.ID,
				Content:           h.Content,
				KBID:              kbID,
				DocumentID:        h.DocumentID,
				DocumentName:      h.DocumentName,
				ImportantKeywords: h.ImportantKeywords,
				VectorSimilarity:  float64(h.Score),
				Vector:            h.Vector,
			})
		}
	}
	return candidates, nil
}

// rank scores, filters, orders, and paginates candidates.
//
// The lexical side of the blend is term overlap against queryTerms, or the
// rerank model's score when one resolved. Curated important keywords count
// toward the overlap alongside the chunk content.
func rank(ctx context.Context, p Params, candidates []*Chunk, queryTerms []string) (*ResultSet, error) {
	if p.Reranker != nil && len(candidates) > 0 {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Content
		}
		scores, err := p.Reranker.Rerank(ctx, p.Query, texts)
		if err != nil {
			return nil, fmt.Errorf("reranking: %w", err)
		}
		if len(scores) != len(candidates) {
			return nil, fmt.Errorf("reranking: got %d scores for %d candidates", len(scores), len(candidates))
		}
		for i, c := range candidates {
			c.TermSimilarity = float64(scores[i])
		}
	} else {
		for _, c := range candidates {
			c.TermSimilarity = termSimilarity(queryTerms, c)
		}
	}

	kept := candidates[:0]
	for _, c := range candidates {
		c.Similarity = (1-p.VectorWeight)*c.TermSimilarity + p.VectorWeight*c.VectorSimilarity
		if c.Similarity >= p.SimilarityThreshold {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})

	total := len(kept)
	page := paginate(kept, p.Page, p.PageSize)

	if p.Highlight {
		for _, c := range page {
			c.Highlight = highlight(c.Content, queryTerms)
		}
	}

	return &ResultSet{Chunks: page, Total: total}, nil
}

// termSimilarity is the unique-term overlap between the query and the chunk
// content plus its curated keywords.
func termSimilarity(queryTerms []string, c *Chunk) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	docTerms := llm.Tokenize(c.Content)
	for _, kw := range c.ImportantKeywords {
		docTerms = append(docTerms, llm.Tokenize(kw)...)
	}

	docSet := make(map[string]bool, len(docTerms))
	for _, t := range docTerms {
		docSet[t] = true
	}
	matched := 0
	counted := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		if docSet[t] && !counted[t] {
			matched++
			counted[t] = true
		}
	}
	return float64(matched) / float64(len(queryTerms))
}

// paginate returns the 1-based page window of chunks.
func paginate(chunks []*Chunk, page, size int) []*Chunk {
	start := (page - 1) * size
	if start >= len(chunks) {
		return []*Chunk{}
	}
	end := start + size
	if end > len(chunks) {
		end = len(chunks)
	}
	return chunks[start:end]
}
