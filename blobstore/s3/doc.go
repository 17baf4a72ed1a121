// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("brains/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	err = engine.Save(ctx, store, "demo_brain.hdc")
//
// # Features
//
//   - Single PutObject with CRC32C checksum for small snapshots
//   - Multipart uploads for large snapshots and streaming writes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
