// Package storage provides the cart persistence collaborator consumed by
// the detection engine.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cart-tracker/internal/types"
)

// MemoryStore is a thread-safe in-memory cart store. Items are kept
// newest-first; adding a product that matches an existing item's URL and
// title updates that item in place instead of appending.
type MemoryStore struct {
	mu    sync.RWMutex
	items []types.Product
	now   func() time.Time
}

// NewMemoryStore creates an empty cart store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// GetCart returns a copy of the cart, newest first
func (s *MemoryStore) GetCart(ctx context.Context) ([]types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]types.Product, len(s.items))
	copy(items, s.items)
	return items, nil
}

// AddToCart inserts or updates a product. New items are stamped with the
// addition instant and prepended.
func (s *MemoryStore) AddToCart(ctx context.Context, product types.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.URL == product.URL && item.Title == product.Title {
			product.AddedAt = item.AddedAt
			product.UpdatedAt = s.now()
			s.items[i] = product
			return nil
		}
	}

	product.AddedAt = s.now()
	s.items = append([]types.Product{product}, s.items...)
	return nil
}

// RemoveFromCart deletes the item with the given id
func (s *MemoryStore) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("product %s: %w", productID, types.ErrProductNotFound)
}

// Clear empties the cart
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

// Len returns the number of items in the cart
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Stats summarizes the cart grouped by store
func (s *MemoryStore) Stats(ctx context.Context) (types.CartStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var order []string
	for _, item := range s.items {
		if _, seen := counts[item.Store]; !seen {
			order = append(order, item.Store)
		}
		counts[item.Store]++
	}

	stats := types.CartStats{
		TotalItems: len(s.items),
		Stores:     len(counts),
	}
	for _, store := range order {
		stats.StoreBreakdown = append(stats.StoreBreakdown, types.StoreCount{
			Store: store,
			Count: counts[store],
		})
	}
	return stats, nil
}
