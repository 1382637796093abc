package llm

import (
	"context"
	"strings"
)

// TermOverlapReranker is a model-free Reranker that scores candidates by the
// fraction of query terms they contain. It serves as the local-mode rerank
// binding and as a deterministic stand-in for hosted rerank models in tests.
type TermOverlapReranker struct{}

// NewTermOverlapReranker creates a new TermOverlapReranker.
func NewTermOverlapReranker() *TermOverlapReranker {
	return &TermOverlapReranker{}
}

// Rerank implements Reranker. Scores are in [0,1], one per input text.
func (r *TermOverlapReranker) Rerank(_ context.Context, query string, texts []string) ([]float32, error) {
	queryTokens := Tokenize(query)
	scores := make([]float32, len(texts))
	if len(queryTokens) == 0 {
		return scores, nil
	}
	for i, text := range texts {
		scores[i] = termOverlap(queryTokens, Tokenize(text))
	}
	return scores, nil
}

// Tokenize splits text into lowercase terms, dropping stopwords and terms
// shorter than three characters.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) && len(token) > 2 {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_'
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true, "he": true,
	"she": true, "it": true, "we": true, "they": true, "what": true, "which": true,
	"who": true, "when": true, "where": true, "why": true, "how": true,
}

func isStopword(token string) bool {
	return stopwords[token]
}

// termOverlap returns the ratio of unique query terms found in the document.
func termOverlap(queryTokens, docTokens []string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}

	docSet := make(map[string]bool, len(docTokens))
	for _, token := range docTokens {
		docSet[token] = true
	}

	matched := 0
	counted := make(map[string]bool, len(queryTokens))
	for _, token := range queryTokens {
		if docSet[token] && !counted[token] {
			matched++
			counted[token] = true
		}
	}
	return float32(matched) / float32(len(queryTokens))
}
