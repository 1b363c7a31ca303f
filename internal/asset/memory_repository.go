package asset

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Asset
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Asset)}
}

func (r *memoryRepository) Create(_ context.Context, a Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[a.ID]; exists {
		return ErrAlreadyExists
	}
	r.storage[a.ID] = a
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.storage[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	assets := make([]Asset, 0, len(r.storage))
	for _, a := range r.storage {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].CreatedAt.Before(assets[j].CreatedAt) })
	return assets, nil
}

func (r *memoryRepository) SetOwner(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	a.OwnerID = ownerID
	r.storage[id] = a
	return nil
}
