// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists chunks in a queryable index with optional
// embeddings.
// Implements: prd005-index (R1-R4);
//
//	docs/ARCHITECTURE § Vector Index.
package index

import (
	"context"

	"github.com/pdiddy/wiki-engine/pkg/types"
)

// Index receives chunk batches from the ingestion coordinator. Implementations
// must reject duplicate chunk ids so a confused resume cannot silently
// double-index an article.
type Index interface {
	// AddBatch stores a batch of chunks atomically. It fails the whole
	// batch when any chunk id already exists.
	AddBatch(ctx context.Context, chunks []types.Chunk) error

	// Persist flushes buffered state to durable storage.
	Persist(ctx context.Context) error

	// Reset removes all stored chunks.
	Reset(ctx context.Context) error

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage.
	Close() error
}
