package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that are empty or escape the store root.
var ErrInvalidName = errors.New("invalid blob name")

// ErrClosed is returned when writing to a committed or aborted blob.
var ErrClosed = errors.New("blob already closed")

// Store is a flat namespace of immutable blobs.
type Store interface {
	// Open opens a blob for streaming reads.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Create starts a new blob. It becomes visible when Close returns nil.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// WritableBlob is an in-progress blob write.
type WritableBlob interface {
	io.Writer
	// Close commits the blob.
	Close() error
	// Abort discards the blob. It is a no-op after Close.
	Abort() error
}

// ReadAll returns the full content of the named blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
