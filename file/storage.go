package file

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrObjectNotFound indicates a storage path with no stored object.
var ErrObjectNotFound = errors.New("object not found")

// Storage is the attachment/storage collaborator boundary. Implementations
// persist raw bytes under bucket/path and hand back reference URLs.
type Storage interface {
	// Upload stores the bytes and returns a reference URL.
	Upload(ctx context.Context, bucket, path string, data []byte) (string, error)

	// SignedURL returns a time-limited URL for an existing object.
	SignedURL(bucket, path string, ttl time.Duration) (string, error)

	// Remove deletes an object.
	Remove(ctx context.Context, bucket, path string) error
}

// MemStorage is the in-memory storage used by this deployment: uploads are
// simulated rather than sent to a remote object store, but the collaborator
// interface is identical.
type MemStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailUploads makes every Upload return an error, for exercising the
	// per-file failure path.
	FailUploads bool
}

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{objects: make(map[string][]byte)}
}

func objectKey(bucket, path string) string { return bucket + "/" + path }

// Upload stores the bytes under bucket/path.
func (m *MemStorage) Upload(_ context.Context, bucket, path string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUploads {
		return "", errors.New("storage unavailable")
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[objectKey(bucket, path)] = buf

	return fmt.Sprintf("mem://%s/%s", bucket, path), nil
}

// SignedURL returns a pseudo-signed URL for a stored object.
func (m *MemStorage) SignedURL(bucket, path string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[objectKey(bucket, path)]; !ok {
		return "", ErrObjectNotFound
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("mem://%s/%s?expires=%d", bucket, path, expires), nil
}

// Remove deletes a stored object.
func (m *MemStorage) Remove(_ context.Context, bucket, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := objectKey(bucket, path)
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

// Object returns a stored object's bytes.
func (m *MemStorage) Object(bucket, path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectKey(bucket, path)]
	return data, ok
}
