package services

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryBucket is a PhotoBucket held in a map, for tests and local runs
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	body        []byte
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memoryObject)}
}

func (b *MemoryBucket) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if _, err := io.Copy(buf, body); err != nil {
		return err
	}

	b.mu.Lock()
	b.objects[key] = memoryObject{contentType: contentType, body: buf.Bytes()}
	b.mu.Unlock()
	return nil
}

func (b *MemoryBucket) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := b.Object(key)
	return ok, nil
}

// SignedURL returns a stable fake link; it does not check that key exists
func (b *MemoryBucket) SignedURL(ctx context.Context, key string) (string, error) {
	return "https://photos.test/" + key + "?signed=1", nil
}

func (b *MemoryBucket) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

// Object returns the stored bytes for key
func (b *MemoryBucket) Object(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	return obj.body, ok
}

// ContentType returns the content type key was stored with
func (b *MemoryBucket) ContentType(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[key].contentType
}

func (b *MemoryBucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
