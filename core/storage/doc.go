// Package storage provides an abstraction layer for the report archive.
//
// It wraps the MinIO Go client to provide a simplified interface for the operations
// the archive sink and the ops API need. This abstraction supports both AWS S3 and
// self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the archive bucket.
//   - PutObject: Uploads a run report (with size and options).
//   - ListObjects: Lists archived reports (supports prefix/recursive).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "sg2pl-reports")
package storage
