package benchmark

import (
	"fmt"
	"testing"

	"github.com/docstack/docsearch/internal/index"
	"github.com/docstack/docsearch/internal/search"
)

// corpusWords drives vocabulary growth: each document samples a rotating
// window so distinct-term count scales with corpus size.
var corpusWords = []string{
	"search", "index", "postings", "ranking", "tokenizer", "scoring",
	"cache", "redis", "kafka", "analytics", "latency", "throughput",
	"shard", "replica", "snapshot", "segment", "merge", "compaction",
}

func buildCorpus(size int) *index.Index {
	docs := make([]index.RawDocument, size)
	for i := range docs {
		w1 := corpusWords[i%len(corpusWords)]
		w2 := corpusWords[(i+5)%len(corpusWords)]
		docs[i] = index.RawDocument{
			ID:      fmt.Sprintf("doc-%d", i),
			Title:   fmt.Sprintf("%s and %s", w1, w2),
			Content: fmt.Sprintf("notes on %s %s variant-%d with sections about %s", w1, w2, i, corpusWords[(i+11)%len(corpusWords)]),
			Tags:    []string{w1},
		}
	}
	return index.Build(docs)
}

// BenchmarkQueryExact measures exact-match query latency over corpora of
// increasing size.
func BenchmarkQueryExact(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		ix := buildCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results := search.Query(ix, "search ranking", search.Options{Limit: 20})
				_ = results
			}
		})
	}
}

// BenchmarkQueryFuzzy measures fuzzy query latency. Fuzzy expansion scans
// the full vocabulary with an edit-distance check per term, so latency
// grows linearly with distinct-term count; these sizes make that visible
// next to BenchmarkQueryExact.
func BenchmarkQueryFuzzy(b *testing.B) {
	for _, size := range []int{1000, 10000} {
		ix := buildCorpus(size)
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				results := search.Query(ix, "serach rankng", search.Options{Fuzzy: true, Limit: 20})
				_ = results
			}
		})
	}
}

// BenchmarkLevenshtein measures the distance kernel on word pairs of
// typical query-term length.
func BenchmarkLevenshtein(b *testing.B) {
	pairs := []struct{ a, c string }{
		{"search", "serach"},
		{"tokenizer", "tokeniser"},
		{"compaction", "compression"},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := pairs[i%len(pairs)]
		d := search.Distance(p.a, p.c)
		_ = d
	}
}

// BenchmarkQueryFiltered measures category and tag filtering overhead.
func BenchmarkQueryFiltered(b *testing.B) {
	ix := buildCorpus(10000)
	opts := search.Options{Tags: []string{"search"}, Limit: 20}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := search.Query(ix, "search ranking", opts)
		_ = results
	}
}
