// Package storage provides object storage for rendering artifacts
// (intermediate HTML bodies and generated PDFs).
package storage

import (
	"context"
	"io"
)

// ObjectMeta is the metadata recorded alongside a stored object
type ObjectMeta struct {
	ContentType string
	// OwnerID ties the object to the subject that produced it
	OwnerID string
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Bucket string
	Key    string
	URL    string
	Size   int64
}

// ObjectStorage stores and retrieves rendering artifacts. Buckets are
// per call because shop settings may override the service defaults.
type ObjectStorage interface {
	// Put streams an object into a bucket and returns its key and URL
	Put(ctx context.Context, bucket, key string, body io.Reader, meta ObjectMeta) (*ObjectInfo, error)
	// Get streams an object out of a bucket
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// EnsureBucket creates the bucket if it does not exist
	EnsureBucket(ctx context.Context, bucket string) error
}
