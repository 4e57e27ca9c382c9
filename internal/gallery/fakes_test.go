package gallery_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sakkuru/image-gallery/internal/storage"
)

// memStore is an in-memory storage.Storage for handler tests.
type memStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deleteCalls []string
	listErr     error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) List(ctx context.Context) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	objects := make([]storage.Object, 0, len(m.objects))
	for key, data := range m.objects {
		objects = append(objects, storage.Object{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func (m *memStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &storage.Error{Op: "put object", Key: key, Kind: storage.ErrWrite, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, key)
	if _, ok := m.objects[key]; !ok {
		return &storage.Error{Op: "delete object", Key: key, Kind: storage.ErrNotFound}
	}
	delete(m.objects, key)
	return nil
}

func (m *memStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://store.example.com/images/" + key + "?signed=1", nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}

// memCounter is an in-memory gallery.Counter whose Increment is atomic under
// a mutex, mirroring the single-statement upsert of the real repository.
type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	getErr error
	incErr error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: make(map[string]int64)}
}

func (m *memCounter) GetCount(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.counts[key], nil
}

func (m *memCounter) Increment(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return 0, m.incErr
	}
	m.counts[key]++
	return m.counts[key], nil
}
