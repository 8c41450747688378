package inmemory

import (
	"context"
	"sync"

	"github.com/Pelanglene/213bot/internal/ports/storage"
)

// BucketStore in-memory хранилище бакетов (STORAGE_BACKEND=memory и тесты)
type BucketStore struct {
	mu      sync.RWMutex
	buckets map[string][]byte
}

// NewBucketStore создаёт пустое in-memory хранилище бакетов
func NewBucketStore() *BucketStore {
	return &BucketStore{
		buckets: make(map[string][]byte),
	}
}

func (s *BucketStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.buckets[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *BucketStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets[key] = append([]byte(nil), data...)
	return nil
}

func (s *BucketStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}

// Len количество сохранённых бакетов
func (s *BucketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}
