package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

var queryStopwords = toStopwordSet(
	// articles
	"a", "an", "the",
	// conjunctions
	"and", "or", "but", "nor", "so", "yet",
	// prepositions
	"on", "in", "at", "of", "for", "to", "with", "by", "from", "into", "about",
	// search noise
	"who", "find", "show", "me", "someone", "anyone", "people", "looking", "is", "are",
	"/", "-",
)

func toStopwordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// NormalizeQuery prepares raw input for full-text search while keeping the
// original text for embedding. If every token is a stopword the trimmed
// original is used untouched.
func NormalizeQuery(raw string) (domain.Query, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.Query{}, domain.WrapError(domain.ErrInvalidInput, "normalize query", fmt.Errorf("query is required"))
	}

	tokens := strings.Fields(strings.ToLower(trimmed))
	kept := tokens[:0]
	for _, token := range tokens {
		if _, stop := queryStopwords[token]; stop {
			continue
		}
		kept = append(kept, token)
	}

	normalized := strings.Join(kept, " ")
	if normalized == "" {
		normalized = trimmed
	}
	return domain.Query{Original: raw, Normalized: normalized}, nil
}
