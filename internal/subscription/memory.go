package subscription

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository keeps subscriptions in process memory.
// Used for --test-mode and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{subs: make(map[string]Subscription)}
}

// Get returns a copy of the user's record, or nil if absent
func (r *MemoryRepository) Get(ctx context.Context, userID string) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[userID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

// Save stores sub under its user ID
func (r *MemoryRepository) Save(ctx context.Context, sub Subscription) error {
	if sub.UserID == "" {
		return fmt.Errorf("userId is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == "" {
		sub.ID = sub.UserID
	}
	r.subs[sub.UserID] = sub
	return nil
}
