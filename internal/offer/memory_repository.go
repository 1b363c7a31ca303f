package offer

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Offer
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Offer)}
}

func (r *memoryRepository) Create(_ context.Context, o Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[o.ID]; exists {
		return ErrAlreadyExists
	}
	r.storage[o.ID] = o
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.storage[id]
	if !ok {
		return Offer{}, ErrNotFound
	}
	return o, nil
}

func (r *memoryRepository) ListByAsset(_ context.Context, assetID string) ([]Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var offers []Offer
	for _, o := range r.storage {
		if o.AssetID == assetID {
			offers = append(offers, o)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].CreatedAt.Before(offers[j].CreatedAt) })
	return offers, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[id]; !ok {
		return ErrNotFound
	}
	delete(r.storage, id)
	return nil
}
