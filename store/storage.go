package store

import (
	"context"
	"sync"

	"shareanything/models"

	"github.com/samber/lo"
)

// Storage is the persistent namespace backing a Posts collection
type Storage interface {
	FindAll(ctx context.Context) ([]models.Post, error)
	Put(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, id string) error
}

// Compile-time assertion that MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps records in process memory. Used for tests and for
// running the server without a database file.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []models.Post
}

func NewMemoryStorage(posts ...models.Post) *MemoryStorage {
	return &MemoryStorage{records: append([]models.Post(nil), posts...)}
}

func (s *MemoryStorage) FindAll(ctx context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Post{}, s.records...), nil
}

func (s *MemoryStorage) Put(ctx context.Context, post models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, i, ok := lo.FindIndexOf(s.records, func(p models.Post) bool { return p.Id == post.Id }); ok {
		s.records[i] = post
		return nil
	}
	s.records = append(s.records, post)
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = lo.Reject(s.records, func(p models.Post, _ int) bool { return p.Id == id })
	return nil
}
