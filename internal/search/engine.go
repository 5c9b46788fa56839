// Package search implements the query side of the index: term matching
// with optional fuzzy expansion, category and tag filters, TF-IDF scoring,
// and result ordering. The whole pipeline is a pure function over an index
// snapshot; it holds no state of its own.
package search

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/docstack/docsearch/internal/index"
	"github.com/docstack/docsearch/internal/index/tokenizer"
)

// Field weights for the TF-IDF score. A title hit counts three times a
// content hit, a tag hit twice.
const (
	weightContent = 1.0
	weightTitle   = 3.0
	weightTags    = 2.0
)

// DefaultDocFreq stands in for the document frequency of terms absent from
// the postings map, which happens when scoring fuzzy-only matches. It
// slightly understates their rarity; kept at 1 for a well-defined idf.
const DefaultDocFreq = 1

// Options configures a single query. The zero value matches exactly with
// no filters and no result cap.
type Options struct {
	// Categories keeps only documents whose category is in the list.
	// Empty means no category filter.
	Categories []string `json:"categories,omitempty"`
	// Tags keeps only documents sharing at least one tag with the list.
	Tags []string `json:"tags,omitempty"`
	// Fuzzy expands each query term to vocabulary terms within an
	// edit-distance threshold of max(1, len/3).
	Fuzzy bool `json:"fuzzy,omitempty"`
	// Limit caps the number of results; 0 means unlimited.
	Limit int `json:"limit,omitempty"`
	// DefaultDocFreq overrides the document-frequency fallback used when
	// scoring terms absent from the postings map. Zero or negative falls
	// back to DefaultDocFreq. Set from service config, not per request.
	DefaultDocFreq int `json:"-"`
}

// Result is a scored hit plus the presentation decorations layered on
// after scoring. Enrichment never changes ID or Score.
type Result struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	LastModified time.Time `json:"last_modified"`
	Score        float64   `json:"score"`
	Snippet      string    `json:"snippet,omitempty"`
	Breadcrumbs  []string  `json:"breadcrumbs,omitempty"`
}

// Query runs the match → filter → score → sort pipeline against ix. An
// empty or whitespace-only query returns an empty, non-nil slice without
// touching the index.
func Query(ix *index.Index, query string, opts Options) []Result {
	terms := tokenizer.UniqueTerms(query)
	if len(terms) == 0 {
		return []Result{}
	}

	docs := matchCandidates(ix, terms, opts.Fuzzy)
	docs = applyFilters(docs, opts)

	fallbackDF := opts.DefaultDocFreq
	if fallbackDF <= 0 {
		fallbackDF = DefaultDocFreq
	}

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, Result{
			ID:           doc.ID,
			Title:        doc.Title,
			Path:         doc.Path,
			Category:     doc.Category,
			Tags:         doc.Tags,
			LastModified: doc.LastModified,
			Score:        scoreDocument(ix, doc, terms, fallbackDF),
			Snippet:      Snippet(doc.Content),
		})
	}

	// Descending score; equal scores order by id so responses are stable.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// matchCandidates unions the postings of every query term (OR semantics),
// optionally widened by fuzzy vocabulary expansion, and resolves the ids
// to documents. Ids that no longer resolve are dropped.
func matchCandidates(ix *index.Index, terms []string, fuzzy bool) []*index.Document {
	ids := make(map[string]struct{})
	for _, term := range terms {
		for _, id := range ix.PostingsFor(term) {
			ids[id] = struct{}{}
		}
		if !fuzzy {
			continue
		}
		threshold := fuzzyThreshold(term)
		termLen := utf8.RuneCountInString(term)
		expanded := ix.MatchingTerms(func(candidate string) bool {
			// A length gap beyond the threshold already exceeds it.
			diff := utf8.RuneCountInString(candidate) - termLen
			if diff > threshold || diff < -threshold {
				return false
			}
			return Distance(term, candidate) <= threshold
		})
		for _, match := range expanded {
			for _, id := range ix.PostingsFor(match) {
				ids[id] = struct{}{}
			}
		}
	}

	docs := make([]*index.Document, 0, len(ids))
	for id := range ids {
		if doc, ok := ix.Document(id); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// applyFilters narrows the candidate set by category and tag membership.
// Filters only ever remove candidates.
func applyFilters(docs []*index.Document, opts Options) []*index.Document {
	if len(opts.Categories) == 0 && len(opts.Tags) == 0 {
		return docs
	}
	categories := make(map[string]struct{}, len(opts.Categories))
	for _, c := range opts.Categories {
		categories[c] = struct{}{}
	}
	filterTags := make(map[string]struct{}, len(opts.Tags))
	for _, t := range opts.Tags {
		filterTags[t] = struct{}{}
	}

	kept := docs[:0]
	for _, doc := range docs {
		if len(categories) > 0 {
			if _, ok := categories[doc.Category]; !ok {
				continue
			}
		}
		if len(filterTags) > 0 && !sharesTag(doc.Tags, filterTags) {
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}

func sharesTag(tags []string, filter map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := filter[tag]; ok {
			return true
		}
	}
	return false
}

// scoreDocument accumulates the weighted TF-IDF contribution of every
// query term. A term with zero weighted frequency contributes zero; a term
// missing from the global postings map scores against fallbackDF.
func scoreDocument(ix *index.Index, doc *index.Document, terms []string, fallbackDF int) float64 {
	var score float64
	for _, term := range terms {
		weightedTF := weightContent*float64(countTerm(doc.ContentTerms, term)) +
			weightTitle*float64(countTerm(doc.TitleTerms, term)) +
			weightTags*float64(countTerm(doc.TagTerms, term))
		if weightedTF == 0 {
			continue
		}
		docFreq := ix.DocFreq(term)
		if docFreq == 0 {
			docFreq = fallbackDF
		}
		idf := math.Log(float64(ix.DocumentCount()) / float64(docFreq))
		score += weightedTF * idf
	}
	return score
}

func countTerm(terms []string, term string) int {
	count := 0
	for _, t := range terms {
		if t == term {
			count++
		}
	}
	return count
}
