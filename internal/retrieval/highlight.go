package retrieval

import (
	"regexp"
	"strings"
)

// highlight wraps occurrences of the query terms in <em> tags. Matching is
// case-insensitive on whole terms; the original casing of the content is
// preserved inside the tags.
func highlight(content string, terms []string) string {
	if len(terms) == 0 || content == "" {
		return ""
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return ""
	}

	if !re.MatchString(content) {
		return ""
	}
	return re.ReplaceAllString(content, "<em>$1</em>")
}
