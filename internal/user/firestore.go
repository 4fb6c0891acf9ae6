package user

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// collectionName is the Firestore collection for users
	collectionName = "users"
)

// FirestoreRepository implements Repository using Firestore.
// Documents are keyed by UID.
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

// Upsert creates or refreshes the profile inside a transaction
func (r *FirestoreRepository) Upsert(ctx context.Context, user User) (User, error) {
	if user.UID == "" {
		return User{}, ErrMissingUID
	}

	docRef := r.client.Collection(collectionName).Doc(user.UID)
	var saved User

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		saved = user
		if doc != nil && doc.Exists() {
			existing := documentToUser(doc)
			saved = mergeProfile(existing, user)
		}
		return tx.Set(docRef, userToMap(saved))
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	return saved, nil
}

// GetByUID retrieves a user by identity provider UID
func (r *FirestoreRepository) GetByUID(ctx context.Context, uid string) (*User, error) {
	doc, err := r.client.Collection(collectionName).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user := documentToUser(doc)
	return &user, nil
}

// UpdateLastLogin updates the lastLoginAt field
func (r *FirestoreRepository) UpdateLastLogin(ctx context.Context, uid string, t time.Time) error {
	docRef := r.client.Collection(collectionName).Doc(uid)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: t},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// mergeProfile applies the fresh identity fields of incoming onto existing
func mergeProfile(existing, incoming User) User {
	merged := existing
	if incoming.Email != "" {
		merged.Email = incoming.Email
	}
	if incoming.DisplayName != "" {
		merged.DisplayName = incoming.DisplayName
	}
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = incoming.CreatedAt
	}
	if !incoming.LastLoginAt.IsZero() {
		merged.LastLoginAt = incoming.LastLoginAt
	}
	return merged
}

// userToMap converts a User to a map for Firestore storage
func userToMap(user User) map[string]any {
	return map[string]any{
		"uid":         user.UID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"createdAt":   user.CreatedAt,
		"lastLoginAt": user.LastLoginAt,
	}
}

// documentToUser converts a Firestore document to a User
func documentToUser(doc *firestore.DocumentSnapshot) User {
	data := doc.Data()

	user := User{
		UID: doc.Ref.ID,
	}

	if uid, ok := data["uid"].(string); ok && uid != "" {
		user.UID = uid
	}
	if email, ok := data["email"].(string); ok {
		user.Email = email
	}
	if displayName, ok := data["displayName"].(string); ok {
		user.DisplayName = displayName
	}
	if createdAt, ok := data["createdAt"].(time.Time); ok {
		user.CreatedAt = createdAt
	}
	if lastLoginAt, ok := data["lastLoginAt"].(time.Time); ok {
		user.LastLoginAt = lastLoginAt
	}

	return user
}
