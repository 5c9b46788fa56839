package source

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docstack/docsearch/internal/index"
	apperrors "github.com/docstack/docsearch/pkg/errors"
	"github.com/docstack/docsearch/pkg/resilience"
)

// frontmatter is the YAML metadata block at the top of a markdown document.
type frontmatter struct {
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
}

// FS is a Catalog over a directory tree of markdown files. The document id
// is the slash-separated relative path without extension.
type FS struct {
	dir    string
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewFS(dir string) *FS {
	return &FS{
		dir:    dir,
		retry:  resilience.RetryConfig{MaxAttempts: 2},
		logger: slog.Default().With("component", "fs-catalog", "dir", dir),
	}
}

// Load walks the directory and produces one raw document per markdown
// file. A file whose content cannot be read (after one retry) is indexed
// with empty content under its path metadata.
func (f *FS) Load(ctx context.Context) ([]index.RawDocument, error) {
	var docs []index.RawDocument
	walkErr := filepath.WalkDir(f.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}

		rel, err := filepath.Rel(f.dir, path)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

		var data []byte
		readErr := resilience.Retry(ctx, "read-document", f.retry, func() error {
			var rerr error
			data, rerr = os.ReadFile(path)
			return rerr
		})
		if readErr != nil {
			f.logger.Warn("document read failed, indexing metadata only",
				"path", path,
				"error", readErr,
			)
			data = nil
		}

		meta, body := splitFrontmatter(data)
		var fm frontmatter
		if len(meta) > 0 {
			if err := yaml.Unmarshal(meta, &fm); err != nil {
				f.logger.Warn("invalid frontmatter, ignoring", "path", path, "error", err)
				fm = frontmatter{}
			}
		}

		doc := index.RawDocument{
			ID:       id,
			Title:    fm.Title,
			Content:  string(body),
			Path:     "/" + id,
			Category: fm.Category,
			Tags:     fm.Tags,
		}
		if info, err := d.Info(); err == nil {
			doc.LastModified = info.ModTime().UTC()
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking docs dir %s: %w: %w", f.dir, apperrors.ErrSourceUnavailable, walkErr)
	}
	f.logger.Info("catalog loaded", "documents", len(docs))
	return docs, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

var frontmatterDelim = []byte("---")

// splitFrontmatter separates a leading YAML frontmatter block from the
// document body. Without a well-formed block the whole input is body.
func splitFrontmatter(data []byte) (meta, body []byte) {
	trimmed := bytes.TrimPrefix(data, []byte("\ufeff")) // strip BOM
	if !bytes.HasPrefix(trimmed, frontmatterDelim) {
		return nil, data
	}
	rest := trimmed[len(frontmatterDelim):]
	if len(rest) == 0 || (rest[0] != '\n' && !bytes.HasPrefix(rest, []byte("\r\n"))) {
		return nil, data
	}
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data
	}
	meta = rest[:end]
	body = rest[end+len("\n---"):]
	// Drop the remainder of the closing delimiter line.
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return meta, body
}
