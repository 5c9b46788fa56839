package search

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstack/docsearch/internal/index"
)

func policyIndex() *index.Index {
	return index.Build([]index.RawDocument{
		{
			ID:       "doc-a",
			Title:    "Energy Policy",
			Content:  "energy reform bill",
			Path:     "/policy/doc-a",
			Category: "policy",
			Tags:     []string{"energy"},
		},
		{
			ID:       "doc-b",
			Title:    "Water Policy",
			Content:  "water reform bill",
			Path:     "/policy/doc-b",
			Category: "policy",
			Tags:     []string{"water"},
		},
	})
}

func resultIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestQueryEmptyInput(t *testing.T) {
	ix := policyIndex()
	for _, q := range []string{"", "   ", "\t\n", "!!!"} {
		results := Query(ix, q, Options{})
		require.NotNil(t, results, "query %q must return an empty slice, not nil", q)
		assert.Empty(t, results)
	}
}

func TestQuerySingleTerm(t *testing.T) {
	results := Query(policyIndex(), "energy", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].ID)
	assert.Equal(t, "Energy Policy", results[0].Title)
	assert.Equal(t, "/policy/doc-a", results[0].Path)
	assert.Positive(t, results[0].Score)
}

func TestQueryTermInAllDocuments(t *testing.T) {
	// "policy" appears in every title, so its idf is zero, but both
	// documents still match and order deterministically by id.
	results := Query(policyIndex(), "policy", Options{})
	require.Len(t, results, 2)
	assert.Equal(t, []string{"doc-a", "doc-b"}, resultIDs(results))
	assert.Equal(t, results[0].Score, results[1].Score)
}

func TestQueryUnknownTerm(t *testing.T) {
	assert.Empty(t, Query(policyIndex(), "zeppelin", Options{}))
}

func TestQueryORSemantics(t *testing.T) {
	results := Query(policyIndex(), "energy water", Options{})
	assert.ElementsMatch(t, []string{"doc-a", "doc-b"}, resultIDs(results))
}

func TestQueryCaseInsensitive(t *testing.T) {
	results := Query(policyIndex(), "ENERGY", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].ID)
}

func TestQueryTitleOutranksContent(t *testing.T) {
	ix := index.Build([]index.RawDocument{
		{ID: "in-title", Title: "Cache Design", Content: "internals"},
		{ID: "in-content", Title: "Storage", Content: "the cache layer"},
		{ID: "other", Title: "Networking", Content: "sockets"},
	})
	results := Query(ix, "cache", Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "in-title", results[0].ID)
	assert.Equal(t, "in-content", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryRepeatedTermScoresHigher(t *testing.T) {
	ix := index.Build([]index.RawDocument{
		{ID: "dense", Content: "retry retry retry backoff"},
		{ID: "sparse", Content: "retry once"},
		{ID: "other", Content: "unrelated"},
	})
	results := Query(ix, "retry", Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "dense", results[0].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryFuzzyExpansion(t *testing.T) {
	ix := index.Build([]index.RawDocument{
		{ID: "c1", Content: "color"},
		{ID: "c2", Content: "colour"},
		{ID: "c3", Content: "colorado"},
	})

	exact := Query(ix, "color", Options{})
	assert.Equal(t, []string{"c1"}, resultIDs(exact))

	// Threshold for a five-rune term is 1: "colour" is one edit away,
	// "colorado" is three and stays out.
	fuzzy := Query(ix, "color", Options{Fuzzy: true})
	assert.ElementsMatch(t, []string{"c1", "c2"}, resultIDs(fuzzy))
}

func TestDocFreqFallback(t *testing.T) {
	ix := index.Build([]index.RawDocument{
		{ID: "a", Content: "alpha"},
		{ID: "b", Content: "beta"},
	})
	// A document carrying a term the postings map has never seen only
	// arises when scoring against a detached snapshot; the fallback keeps
	// the idf defined there.
	doc := index.Process(index.RawDocument{ID: "z", Content: "orphan"})

	assert.InDelta(t, math.Log(2), scoreDocument(ix, doc, []string{"orphan"}, DefaultDocFreq), 1e-9)
	// A fallback equal to the corpus size drives the idf to zero.
	assert.Zero(t, scoreDocument(ix, doc, []string{"orphan"}, 2))
}

func TestQueryDocFreqOptionDefaultsWhenUnset(t *testing.T) {
	ix := policyIndex()
	plain := Query(ix, "energy", Options{})
	configured := Query(ix, "energy", Options{DefaultDocFreq: 1})
	require.Len(t, configured, 1)
	assert.Equal(t, plain[0].Score, configured[0].Score)
}

func TestQueryFuzzyOnlyMatchScoresZero(t *testing.T) {
	ix := index.Build([]index.RawDocument{{ID: "c1", Content: "color"}})
	results := Query(ix, "colr", Options{Fuzzy: true})
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.Zero(t, results[0].Score)
}

func TestQueryCategoryFilter(t *testing.T) {
	results := Query(policyIndex(), "reform", Options{Categories: []string{"policy"}})
	assert.Len(t, results, 2)

	results = Query(policyIndex(), "reform", Options{Categories: []string{"guides"}})
	assert.Empty(t, results)
}

func TestQueryTagFilter(t *testing.T) {
	results := Query(policyIndex(), "reform", Options{Tags: []string{"water"}})
	require.Len(t, results, 1)
	assert.Equal(t, "doc-b", results[0].ID)

	results = Query(policyIndex(), "reform", Options{Tags: []string{"missing"}})
	assert.Empty(t, results)
}

func TestQueryCombinedFilters(t *testing.T) {
	results := Query(policyIndex(), "reform", Options{
		Categories: []string{"policy"},
		Tags:       []string{"energy"},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].ID)
}

func TestQueryLimit(t *testing.T) {
	results := Query(policyIndex(), "reform", Options{Limit: 1})
	require.Len(t, results, 1)
	// The cap keeps the best-ordered hit.
	assert.Equal(t, "doc-a", results[0].ID)
}

func TestQuerySnippet(t *testing.T) {
	short := Query(policyIndex(), "energy", Options{})
	require.Len(t, short, 1)
	assert.Equal(t, "energy reform bill", short[0].Snippet)

	ix := index.Build([]index.RawDocument{{
		ID:      "long",
		Content: strings.Repeat("words and more words ", 30),
	}})
	long := Query(ix, "words", Options{})
	require.Len(t, long, 1)
	assert.True(t, strings.HasSuffix(long[0].Snippet, "..."))
	assert.LessOrEqual(t, len([]rune(long[0].Snippet)), 203)
}
