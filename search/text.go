package search

import (
	"strings"

	"github.com/optimfinance/kbase/core"
)

// queryTerms lowercases a query and splits it on whitespace into a term set.
// No stop-word or length filtering: short tokens like acronyms and numbers
// must still be able to match chunk content.
func queryTerms(query string) map[string]bool {
	words := strings.Fields(strings.ToLower(query))
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}

// keywordScore scores a chunk against the query terms. Matches on the
// extracted keyword list count double; each distinct content word shared
// with the query counts once. A zero score means the chunk is unrelated to
// the query.
func keywordScore(chunk *core.Chunk, terms map[string]bool) int {
	if len(terms) == 0 {
		return 0
	}

	score := 0
	for _, keyword := range chunk.Keywords {
		if terms[strings.ToLower(keyword)] {
			score += 2
		}
	}

	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(chunk.Content)) {
		if terms[word] && !seen[word] {
			score++
			seen[word] = true
		}
	}
	return score
}
