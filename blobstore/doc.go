// Package blobstore provides the storage abstraction behind clusterkit's
// durable artifacts: the reduced-dataset payload and per-key clustering
// records.
//
// Store is a keyed whole-payload interface. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic temp-file+rename writes
//   - MemoryStore: in-memory store for tests
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Freshness decisions elsewhere in the module compare Stat().LastModified
// timestamps, so implementations must report a stable last-write time.
package blobstore
