// Package subscription tracks which plan each user is on.
package subscription

import (
	"context"
	"time"
)

// Status values of a subscription record
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// DefaultPeriod is the length of a synthesized billing period
const DefaultPeriod = 30 * 24 * time.Hour

// Subscription is a user's current plan record
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	PlanID           string    `json:"planId"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Repository defines the interface for subscription storage.
// There is at most one record per user.
type Repository interface {
	// Get retrieves the subscription of a user
	// Returns nil and no error if the user has no record
	Get(ctx context.Context, userID string) (*Subscription, error)

	// Save creates or replaces the user's record
	Save(ctx context.Context, sub Subscription) error
}
