// Package index implements the in-memory inverted index: the document
// store, the postings map, and the mutation operations that keep the two
// consistent. An Index is never safe for concurrent mutation; the
// coordinator owns each instance exclusively and serialises all access.
package index

// Index holds the processed documents and the inverted postings map.
//
// Two invariants hold after every mutation:
//   - every postings key maps to a non-empty doc-id set; a term whose last
//     document is removed disappears from the map entirely
//   - doc id D is in postings[T] exactly when T occurs in D's term set
type Index struct {
	documents map[string]*Document
	postings  map[string]map[string]struct{}
	size      int64
}

// New returns an empty index.
func New() *Index {
	return &Index{
		documents: make(map[string]*Document),
		postings:  make(map[string]map[string]struct{}),
	}
}

// Build processes every raw document and returns a fresh index over them.
func Build(raws []RawDocument) *Index {
	ix := New()
	for _, raw := range raws {
		ix.Add(raw)
	}
	return ix
}

// Add processes raw and inserts it. Adding an id that is already present
// replaces the stored document and rewrites its postings, so Add and
// Update converge on the same state.
func (ix *Index) Add(raw RawDocument) {
	ix.Remove(raw.ID)
	doc := Process(raw)
	ix.documents[doc.ID] = doc
	for term := range doc.TermSet() {
		ids, ok := ix.postings[term]
		if !ok {
			ids = make(map[string]struct{})
			ix.postings[term] = ids
		}
		ids[doc.ID] = struct{}{}
	}
	ix.size += doc.approxSize()
}

// Remove deletes the document and strips its id from every posting it
// appears in, dropping terms whose sets become empty. Removing an unknown
// id is a no-op.
func (ix *Index) Remove(id string) {
	doc, ok := ix.documents[id]
	if !ok {
		return
	}
	for term := range doc.TermSet() {
		ids := ix.postings[term]
		delete(ids, id)
		if len(ids) == 0 {
			delete(ix.postings, term)
		}
	}
	delete(ix.documents, id)
	ix.size -= doc.approxSize()
}

// Update replaces the document with the same id. An id not previously
// present behaves exactly like Add.
func (ix *Index) Update(raw RawDocument) {
	ix.Add(raw)
}

// Document returns the stored document for id.
func (ix *Index) Document(id string) (*Document, bool) {
	doc, ok := ix.documents[id]
	return doc, ok
}

// DocumentCount returns the number of indexed documents.
func (ix *Index) DocumentCount() int {
	return len(ix.documents)
}

// DistinctTermCount returns the number of postings keys.
func (ix *Index) DistinctTermCount() int {
	return len(ix.postings)
}

// DocFreq returns how many documents contain term, 0 if the term is not
// indexed.
func (ix *Index) DocFreq(term string) int {
	return len(ix.postings[term])
}

// PostingsFor returns the ids of the documents containing term. The slice
// is a copy; callers may keep it.
func (ix *Index) PostingsFor(term string) []string {
	ids := ix.postings[term]
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}

// MatchingTerms scans the whole vocabulary and returns the terms for which
// pred is true. This is a full O(distinct terms) scan; fuzzy query
// expansion is its only caller.
func (ix *Index) MatchingTerms(pred func(term string) bool) []string {
	var matched []string
	for term := range ix.postings {
		if pred(term) {
			matched = append(matched, term)
		}
	}
	return matched
}

// ApproximateSize estimates the index's in-memory footprint in bytes.
func (ix *Index) ApproximateSize() int64 {
	return ix.size
}
