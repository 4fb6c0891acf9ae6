package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user is not found
	ErrNotFound = errors.New("user not found")

	// ErrMissingUID is returned when a user without UID is written
	ErrMissingUID = errors.New("user uid is required")
)

// Repository defines the interface for user profile storage
type Repository interface {
	// Upsert creates the profile on first login, or refreshes email and
	// display name of an existing one. CreatedAt is kept from the stored record.
	Upsert(ctx context.Context, user User) (User, error)

	// GetByUID returns the profile, or nil if it does not exist
	GetByUID(ctx context.Context, uid string) (*User, error)

	// UpdateLastLogin sets LastLoginAt. Returns ErrNotFound for unknown users.
	UpdateLastLogin(ctx context.Context, uid string, t time.Time) error
}

// RecordLogin upserts the profile and stamps its last login time
func RecordLogin(ctx context.Context, repo Repository, u User, now time.Time) (User, error) {
	u.LastLoginAt = now
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return repo.Upsert(ctx, u)
}
