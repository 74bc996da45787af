package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
)

// InMemoryObjectStorage implements ObjectStorage with an in-process
// map. Used by tests and local development without an S3 backend.
type InMemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	metas   map[string]ObjectMeta
}

// NewInMemoryObjectStorage creates an empty in-memory store
func NewInMemoryObjectStorage() *InMemoryObjectStorage {
	return &InMemoryObjectStorage{
		objects: make(map[string][]byte),
		metas:   make(map[string]ObjectMeta),
	}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores an object
func (s *InMemoryObjectStorage) Put(_ context.Context, bucket, key string, body io.Reader, meta ObjectMeta) (*ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.objects[objectKey(bucket, key)] = data
	s.metas[objectKey(bucket, key)] = meta
	s.mu.Unlock()

	return &ObjectInfo{
		Bucket: bucket,
		Key:    key,
		URL:    fmt.Sprintf("memory://%s/%s", bucket, key),
		Size:   int64(len(data)),
	}, nil
}

// Get retrieves an object
func (s *InMemoryObjectStorage) Get(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.objects[objectKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.NewNotFoundError("object", objectKey(bucket, key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// EnsureBucket is a no-op for the in-memory store
func (s *InMemoryObjectStorage) EnsureBucket(context.Context, string) error {
	return nil
}

// Meta returns the stored metadata for an object. Test helper.
func (s *InMemoryObjectStorage) Meta(bucket, key string) (ObjectMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metas[objectKey(bucket, key)]
	return meta, ok
}

// Len returns the number of stored objects. Test helper.
func (s *InMemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Ensure InMemoryObjectStorage implements ObjectStorage
var _ ObjectStorage = (*InMemoryObjectStorage)(nil)
