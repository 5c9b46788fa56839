package index

import (
	"time"

	"github.com/docstack/docsearch/internal/index/tokenizer"
)

// DefaultCategory is assigned to documents ingested without a category.
const DefaultCategory = "uncategorized"

// RawDocument is an unprocessed document descriptor as produced by a
// catalog source. Optional fields may be zero; processing defaults them
// rather than rejecting the document.
type RawDocument struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Path         string    `json:"path"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	LastModified time.Time `json:"last_modified"`
}

// Document is the indexed form of a catalog document. The derived term
// slices are computed once at ingestion and retain duplicates so scoring
// can count per-field occurrences.
type Document struct {
	ID           string
	Title        string
	Content      string
	Path         string
	Category     string
	Tags         []string
	LastModified time.Time

	ContentTerms []string
	TitleTerms   []string
	TagTerms     []string
}

// Process converts a raw descriptor into its indexed form. It is pure and
// deterministic: no I/O, and missing optional fields are defaulted.
func Process(raw RawDocument) *Document {
	category := raw.Category
	if category == "" {
		category = DefaultCategory
	}
	tags := raw.Tags
	if tags == nil {
		tags = []string{}
	}
	var tagTerms []string
	for _, tag := range tags {
		tagTerms = append(tagTerms, tokenizer.Terms(tag)...)
	}
	return &Document{
		ID:           raw.ID,
		Title:        raw.Title,
		Content:      raw.Content,
		Path:         raw.Path,
		Category:     category,
		Tags:         tags,
		LastModified: raw.LastModified,
		ContentTerms: tokenizer.Terms(raw.Content),
		TitleTerms:   tokenizer.Terms(raw.Title),
		TagTerms:     tagTerms,
	}
}

// TermSet returns the union of the document's content, title, and tag
// terms as a unique set. This is exactly the set of postings keys the
// document participates in.
func (d *Document) TermSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.ContentTerms)+len(d.TitleTerms)+len(d.TagTerms))
	for _, t := range d.ContentTerms {
		set[t] = struct{}{}
	}
	for _, t := range d.TitleTerms {
		set[t] = struct{}{}
	}
	for _, t := range d.TagTerms {
		set[t] = struct{}{}
	}
	return set
}

// approxSize estimates the document's in-memory footprint for the index
// size gauge. It only needs to be symmetric between add and remove.
func (d *Document) approxSize() int64 {
	size := int64(len(d.ID) + len(d.Title) + len(d.Content) + len(d.Path) + len(d.Category))
	for _, tag := range d.Tags {
		size += int64(len(tag))
	}
	for term := range d.TermSet() {
		// postings key share: term bytes, doc id, map entry overhead
		size += int64(len(term) + len(d.ID) + 48)
	}
	return size
}
