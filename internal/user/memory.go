package user

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps user profiles in process memory
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

// Upsert creates or refreshes the profile
func (r *MemoryRepository) Upsert(ctx context.Context, user User) (User, error) {
	if user.UID == "" {
		return User{}, ErrMissingUID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := user
	if existing, ok := r.users[user.UID]; ok {
		saved = mergeProfile(existing, user)
	}
	r.users[user.UID] = saved
	return saved, nil
}

// GetByUID returns a copy of the profile, or nil if absent
func (r *MemoryRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[uid]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// UpdateLastLogin sets LastLoginAt
func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, uid string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[uid]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = t
	r.users[uid] = u
	return nil
}
