// Package benchmark contains Go benchmarks for the tokenizer, the inverted
// index, and the query pipeline, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/docstack/docsearch/internal/index"
	"github.com/docstack/docsearch/internal/index/tokenizer"
)

func syntheticDoc(i int) index.RawDocument {
	return index.RawDocument{
		ID:       fmt.Sprintf("doc-%d", i),
		Title:    fmt.Sprintf("Document %d on indexing", i),
		Content:  "inverted index postings term frequency document store tokenizer scoring pipeline",
		Category: "benchmarks",
		Tags:     []string{"indexing", fmt.Sprintf("group-%d", i%10)},
	}
}

// BenchmarkTokenizerTerms measures tokenization throughput on a typical
// content paragraph.
func BenchmarkTokenizerTerms(b *testing.B) {
	text := "The inverted index maps each term to the set of documents containing it, " +
		"and the query pipeline unions those postings before scoring with TF-IDF weights."
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		terms := tokenizer.Terms(text)
		_ = terms
	}
}

// BenchmarkIndexAdd measures per-document insert throughput.
func BenchmarkIndexAdd(b *testing.B) {
	ix := index.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Add(syntheticDoc(i))
	}
}

// BenchmarkIndexUpdate measures replace throughput when every insert hits
// an existing id, exercising the remove-then-add path.
func BenchmarkIndexUpdate(b *testing.B) {
	ix := index.New()
	for i := 0; i < 1000; i++ {
		ix.Add(syntheticDoc(i))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Update(syntheticDoc(i % 1000))
	}
}

// BenchmarkIndexBuild measures bulk build cost at various corpus sizes.
func BenchmarkIndexBuild(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		docs := make([]index.RawDocument, size)
		for i := range docs {
			docs[i] = syntheticDoc(i)
		}
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ix := index.Build(docs)
				_ = ix
			}
		})
	}
}
