// Package storage persists uploaded source documents (receipts, bank
// statements). The ledger core only ever references documents by key; it
// never depends on blob storage beyond that.
package storage

import (
	"context"
	"io"
)

// Store reads and writes document blobs by key.
type Store interface {
	// Put streams a blob to the given key, overwriting any existing blob.
	Put(ctx context.Context, key string, contentType string, r io.Reader) error

	// Get opens a reader for the blob at the given key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob at the given key.
	Delete(ctx context.Context, key string) error
}
