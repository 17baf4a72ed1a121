// Package blobstore provides storage for snapshots.
//
// Store is the interface for reading and writing named blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests
//   - LocalStore: local filesystem with atomic temp-file + rename writes
//   - s3.Store: Amazon S3 with multipart uploads and CRC32C checksums
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (io.ReadCloser, error)      // Stream a blob
//	    Create(ctx, name) (WritableBlob, error)     // Stream a new blob
//	    Put(ctx, name, data) error                  // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A WritableBlob becomes visible only when Close succeeds; Abort discards it.
package blobstore
