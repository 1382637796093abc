// Package keyword extracts search keywords from a user question using a
// chat model. The extracted terms are appended to the original query to
// sharpen lexical matching; they never replace it.
package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/retrievald/internal/llm"
)

// extractPrompt instructs the chat model to emit terms only. Anything that
// is not a plain term list gets stripped by clean.
const extractPrompt = `You are a search assistant. Extract the most important keywords and named entities from the question below for use in a keyword search. Respond with the keywords only, separated by spaces, on a single line. Do not add explanations, numbering, or punctuation.

Question: %s

Keywords:`

// maxKeywords bounds how many extracted terms are appended to the query.
const maxKeywords = 12

// Extractor produces supplementary keyword terms for a query.
type Extractor struct {
	chat llm.ChatModel
}

// NewExtractor creates an extractor over the given chat handle.
func NewExtractor(chat llm.ChatModel) *Extractor {
	return &Extractor{chat: chat}
}

// Extract returns a space-separated keyword string for the question. The
// result may be empty when the model produces nothing usable; that is not
// an error.
func (e *Extractor) Extract(ctx context.Context, question string) (string, error) {
	out, err := e.chat.Generate(ctx, fmt.Sprintf(extractPrompt, question))
	if err != nil {
		return "", fmt.Errorf("keyword extraction: %w", err)
	}
	return clean(out), nil
}

// Augment appends extracted keywords to the original question. The original
// text is always preserved as a prefix.
func Augment(question, keywords string) string {
	if keywords == "" {
		return question
	}
	return question + " " + keywords
}

// clean normalizes a model response into a flat keyword string. Models
// occasionally return lists, labels, or surrounding prose; everything but
// the terms themselves is dropped.
func clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Take only the first non-empty line; later lines are usually commentary.
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(line, "Keywords:")
		line = strings.TrimPrefix(line, "keywords:")

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		terms := make([]string, 0, len(fields))
		for _, f := range fields {
			f = strings.Trim(f, `"'.-*`)
			if f == "" {
				continue
			}
			terms = append(terms, f)
			if len(terms) == maxKeywords {
				break
			}
		}
		return strings.Join(terms, " ")
	}
	return ""
}
