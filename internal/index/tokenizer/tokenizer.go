// Package tokenizer normalises raw text into index terms. It lower-cases
// input and splits on runs of non-word characters; no stemming or stop-word
// removal is applied, so index-side and query-side tokenisation always
// agree on the vocabulary.
package tokenizer

import (
	"strings"
	"unicode"
)

// isBoundary reports whether r separates terms. Word characters are
// letters, digits, and underscore; everything else (punctuation,
// whitespace, symbols) is a boundary.
func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// Terms lower-cases text and splits it into terms, preserving duplicates
// in order of appearance so callers can count occurrences.
func Terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), isBoundary)
}

// UniqueTerms tokenises like Terms but drops duplicates, keeping the first
// occurrence order. Used on the query side, where only term identity
// matters.
func UniqueTerms(text string) []string {
	terms := Terms(text)
	if len(terms) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(terms))
	unique := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		unique = append(unique, term)
	}
	return unique
}
