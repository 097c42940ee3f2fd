// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"time"

	"github.com/pdiddy/research-bench/internal/docindex"
	"github.com/pdiddy/research-bench/pkg/types"
)

// LocalDocsBackend searches a private document collection through the
// SQLite full-text index. It never touches the network, so every failure is
// permanent rather than transient.
type LocalDocsBackend struct {
	Index *docindex.Index
}

// Name returns the backend identifier.
func (b *LocalDocsBackend) Name() string { return "localdocs" }

// Search runs a full-text query against the local index.
func (b *LocalDocsBackend) Search(ctx context.Context, query string, limit int) ([]types.SourceDocument, error) {
	hits, err := b.Index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var docs []types.SourceDocument
	for _, h := range hits {
		docs = append(docs, types.SourceDocument{
			URL:         "file://" + h.Path,
			Title:       h.Title,
			Snippet:     h.Snippet,
			Provider:    b.Name(),
			RetrievedAt: now,
		})
	}
	return docs, nil
}
