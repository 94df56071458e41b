// Package storage defines the persistence provider contract for the
// ledger: a key-value blob store that round-trips the entire state as one
// JSON document under a single fixed key.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("no snapshot stored")

// BlobStore persists a single opaque document.
type BlobStore interface {
	// Save replaces the stored document.
	Save(ctx context.Context, blob []byte) error
	// Load returns the stored document, or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	Close() error
}
