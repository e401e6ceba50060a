package blobstore

import (
	"context"
	"os"
	"time"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Info describes a blob without loading its payload.
type Info struct {
	Size         int64
	LastModified time.Time
}

// Store is an abstraction for keyed, whole-payload durable blobs.
//
// Payloads here are small versioned artifacts (the reduced dataset, per-key
// clustering records), so the interface is read-all/write-all rather than
// ranged. Implementations must be safe for concurrent use.
type Store interface {
	// ReadAll returns the full payload of the named blob.
	ReadAll(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any existing payload.
	Put(ctx context.Context, name string, data []byte) error
	// Stat describes a blob without reading its payload.
	Stat(ctx context.Context, name string) (Info, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
