package services

import "path/filepath"

// MockImageService stores photos in a MemoryBucket under predictable names,
// "mock_<original name>", so tests can assert on them directly.
type MockImageService struct {
	*BucketImageService
	bucket *MemoryBucket
}

func NewMockImageService() *MockImageService {
	bucket := NewMemoryBucket()
	svc := NewBucketImageService(bucket)
	svc.name = func(original string) string { return "mock_" + filepath.Base(original) }
	return &MockImageService{BucketImageService: svc, bucket: bucket}
}

// SetAsMockForTesting installs m as the global image service
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

func (m *MockImageService) ImageExists(filename string) bool {
	_, ok := m.bucket.Object(photoKey(filename))
	return ok
}

// Count returns how many photos are stored
func (m *MockImageService) Count() int {
	return m.bucket.Len()
}
