package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/docstack/docsearch/pkg/errors"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFSLoad(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guides/install.md", `---
title: Installation Guide
category: guides
tags:
  - setup
  - getting-started
---
# Install

Run the binary.
`)
	writeDoc(t, dir, "plain.md", "No frontmatter here.\n")
	writeDoc(t, dir, "notes.txt", "not a document")

	docs, err := NewFS(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		byID[d.ID] = i
	}

	require.Contains(t, byID, "guides/install")
	install := docs[byID["guides/install"]]
	assert.Equal(t, "Installation Guide", install.Title)
	assert.Equal(t, "guides", install.Category)
	assert.Equal(t, []string{"setup", "getting-started"}, install.Tags)
	assert.Equal(t, "/guides/install", install.Path)
	assert.Equal(t, "# Install\n\nRun the binary.\n", install.Content)
	assert.False(t, install.LastModified.IsZero())

	require.Contains(t, byID, "plain")
	plain := docs[byID["plain"]]
	assert.Empty(t, plain.Title)
	assert.Empty(t, plain.Category)
	assert.Equal(t, "No frontmatter here.\n", plain.Content)
}

func TestFSLoadByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "bom.md", "\ufeff---\ntitle: Exported Doc\n---\nSaved by an editor that writes a BOM.\n")

	docs, err := NewFS(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Exported Doc", docs[0].Title)
	assert.Equal(t, "Saved by an editor that writes a BOM.\n", docs[0].Content)
}

func TestFSLoadEmptyDir(t *testing.T) {
	docs, err := NewFS(t.TempDir()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFSLoadMissingDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "nope")).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestFSLoadInvalidFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "bad.md", "---\n\t: not yaml [\n---\nbody survives\n")

	docs, err := NewFS(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Title)
	assert.Equal(t, "body survives\n", docs[0].Content)
}

func TestSplitFrontmatter(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		wantMeta string
		wantBody string
	}{
		{"no block", "just text", "", "just text"},
		{"well formed", "---\ntitle: X\n---\nbody", "\ntitle: X", "body"},
		{"bom prefix", "\ufeff---\ntitle: X\n---\nbody", "\ntitle: X", "body"},
		{"crlf", "---\r\ntitle: X\r\n---\r\nbody", "\r\ntitle: X\r", "body"},
		{"unterminated", "---\ntitle: X\nbody", "", "---\ntitle: X\nbody"},
		{"horizontal rule", "----\nbody", "", "----\nbody"},
		{"delimiter only prefix", "---no newline", "", "---no newline"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta, body := splitFrontmatter([]byte(tc.in))
			assert.Equal(t, tc.wantMeta, string(meta))
			assert.Equal(t, tc.wantBody, string(body))
		})
	}
}
