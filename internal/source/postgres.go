package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/docstack/docsearch/internal/index"
	apperrors "github.com/docstack/docsearch/pkg/errors"
	"github.com/docstack/docsearch/pkg/postgres"
)

const catalogQuery = `
SELECT id, title, content, path, category, tags, last_modified
FROM documents
ORDER BY id`

// Postgres is a Catalog over a documents table. Nullable columns map to
// the zero values the processor defaults.
type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{
		client: client,
		logger: slog.Default().With("component", "postgres-catalog"),
	}
}

// Load reads the whole documents table into raw descriptors.
func (p *Postgres) Load(ctx context.Context) ([]index.RawDocument, error) {
	rows, err := p.client.DB.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("querying documents table: %w: %w", apperrors.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var docs []index.RawDocument
	for rows.Next() {
		var (
			doc          index.RawDocument
			title        sql.NullString
			content      sql.NullString
			path         sql.NullString
			category     sql.NullString
			tags         []string
			lastModified sql.NullTime
		)
		if err := rows.Scan(&doc.ID, &title, &content, &path, &category, pq.Array(&tags), &lastModified); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		doc.Title = title.String
		doc.Content = content.String
		doc.Path = path.String
		doc.Category = category.String
		doc.Tags = tags
		if lastModified.Valid {
			doc.LastModified = lastModified.Time.UTC()
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	p.logger.Info("catalog loaded", "documents", len(docs))
	return docs, nil
}
