package repositories

import (
	"context"
	"sync"
)

// memoryRepository keeps values in process memory. Used by tests and by
// STORAGE_DRIVER=memory for throwaway sessions.
type memoryRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() KeyValueRepository {
	return &memoryRepository{values: make(map[string]string)}
}

func (r *memoryRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (r *memoryRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range keys {
		delete(r.values, key)
	}
	return nil
}

func (r *memoryRepository) Close() error {
	return nil
}
