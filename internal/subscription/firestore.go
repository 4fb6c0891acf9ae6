package subscription

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// collectionName is the Firestore collection for subscriptions
	collectionName = "subscriptions"
)

// FirestoreRepository implements Repository interface using Firestore.
// Documents are keyed by user ID.
type FirestoreRepository struct {
	client *firestore.Client
}

// Ensure FirestoreRepository implements Repository interface
var _ Repository = (*FirestoreRepository)(nil)

// NewFirestoreRepository creates a new FirestoreRepository
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{
		client: client,
	}
}

// Get retrieves the subscription document of a user
//
// Returns:
//   - Pointer to the subscription (nil if not found)
//   - Error if Firestore operation fails (nil for not found)
func (r *FirestoreRepository) Get(ctx context.Context, userID string) (*Subscription, error) {
	doc, err := r.client.Collection(collectionName).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	sub := documentToSubscription(doc)
	return &sub, nil
}

// Save writes the full subscription document of sub.UserID
func (r *FirestoreRepository) Save(ctx context.Context, sub Subscription) error {
	if sub.UserID == "" {
		return fmt.Errorf("userId is required")
	}

	_, err := r.client.Collection(collectionName).Doc(sub.UserID).Set(ctx, subscriptionToMap(sub))
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

// subscriptionToMap converts a Subscription to a map for Firestore storage
func subscriptionToMap(sub Subscription) map[string]interface{} {
	data := map[string]interface{}{
		"userId":           sub.UserID,
		"planId":           sub.PlanID,
		"status":           sub.Status,
		"currentPeriodEnd": sub.CurrentPeriodEnd,
		"updatedAt":        sub.UpdatedAt,
	}

	if sub.CreatedAt.IsZero() {
		data["createdAt"] = firestore.ServerTimestamp
	} else {
		data["createdAt"] = sub.CreatedAt
	}

	return data
}

// documentToSubscription converts a Firestore document to a Subscription
func documentToSubscription(doc *firestore.DocumentSnapshot) Subscription {
	data := doc.Data()

	sub := Subscription{
		ID:     doc.Ref.ID,
		UserID: doc.Ref.ID,
	}

	if userID, ok := data["userId"].(string); ok && userID != "" {
		sub.UserID = userID
	}
	if planID, ok := data["planId"].(string); ok {
		sub.PlanID = planID
	}
	if s, ok := data["status"].(string); ok {
		sub.Status = s
	}
	if t, ok := data["currentPeriodEnd"].(time.Time); ok {
		sub.CurrentPeriodEnd = t
	}
	if t, ok := data["createdAt"].(time.Time); ok {
		sub.CreatedAt = t
	}
	if t, ok := data["updatedAt"].(time.Time); ok {
		sub.UpdatedAt = t
	}

	return sub
}
