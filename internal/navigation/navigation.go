// Package navigation resolves breadcrumb trails for search results. The
// search core only depends on the Resolver interface; breadcrumbs are an
// enrichment layered on after scoring.
package navigation

import (
	"strings"

	"github.com/docstack/docsearch/internal/index"
)

// Resolver produces navigational context for a document path.
type Resolver interface {
	Breadcrumbs(path string) []string
}

// PathResolver derives breadcrumbs from the slash segments of a document
// path, substituting catalog titles where a segment corresponds to a known
// document.
type PathResolver struct {
	titles map[string]string
}

// NewPathResolver indexes the catalog's path→title mapping.
func NewPathResolver(docs []index.RawDocument) *PathResolver {
	titles := make(map[string]string, len(docs))
	for _, doc := range docs {
		if doc.Path != "" && doc.Title != "" {
			titles[strings.Trim(doc.Path, "/")] = doc.Title
		}
	}
	return &PathResolver{titles: titles}
}

// Breadcrumbs returns one crumb per path segment, outermost first.
func (r *PathResolver) Breadcrumbs(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	segments := strings.Split(trimmed, "/")
	crumbs := make([]string, 0, len(segments))
	prefix := ""
	for _, segment := range segments {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}
		if title, ok := r.titles[prefix]; ok {
			crumbs = append(crumbs, title)
		} else {
			crumbs = append(crumbs, humanize(segment))
		}
	}
	return crumbs
}

// humanize turns a path segment like "getting-started" into
// "Getting started".
func humanize(segment string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
