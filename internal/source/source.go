// Package source supplies the raw document collections the index is built
// from. The search core never performs file or database I/O itself; it
// consumes whatever a Catalog has already materialised into plain text.
package source

import (
	"context"

	"github.com/docstack/docsearch/internal/index"
)

// Catalog loads the full raw document collection. Implementations are the
// retry/failure boundary: a document whose content cannot be produced is
// returned with empty content and its known metadata rather than aborting
// the load.
type Catalog interface {
	Load(ctx context.Context) ([]index.RawDocument, error)
}
