package project

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// collectionName is the Firestore collection for projects
	collectionName = "projects"
)

// FirestoreRepository implements Repository interface using Firestore
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

// List returns the projects owned by userID, newest first.
// Sorting happens here so the query needs no composite index.
func (r *FirestoreRepository) List(ctx context.Context, userID string) ([]Project, error) {
	iter := r.client.Collection(collectionName).
		Where("userId", "==", userID).
		Documents(ctx)
	defer iter.Stop()

	projects := make([]Project, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
		projects = append(projects, documentToProject(doc))
	}

	SortNewestFirst(projects)
	return projects, nil
}

// Count returns the number of projects owned by userID
func (r *FirestoreRepository) Count(ctx context.Context, userID string) (int, error) {
	query := r.client.Collection(collectionName).Where("userId", "==", userID)
	results, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return countResult(results, "all")
}

// countResult extracts the count aggregation named alias
func countResult(results firestore.AggregationResult, alias string) (int, error) {
	count, ok := results[alias]
	if !ok {
		return 0, fmt.Errorf("failed to count projects: missing aggregation result")
	}
	value, ok := count.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("failed to count projects: unexpected result type %T", count)
	}
	return int(value.GetIntegerValue()), nil
}

// Create adds a project document and reads it back so the caller sees
// the server-assigned createdAt.
func (r *FirestoreRepository) Create(ctx context.Context, userID string, fields Fields) (Project, error) {
	data := fieldsToMap(fields)
	data["userId"] = userID
	data["createdAt"] = firestore.ServerTimestamp

	docRef, _, err := r.client.Collection(collectionName).Add(ctx, data)
	if err != nil {
		return Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	doc, err := docRef.Get(ctx)
	if err != nil {
		return Project{}, fmt.Errorf("failed to read created project: %w", err)
	}

	return documentToProject(doc), nil
}

// Get retrieves a project by ID
//
// Returns:
//   - Pointer to the project (nil if not found)
//   - Error if Firestore operation fails (nil for not found)
func (r *FirestoreRepository) Get(ctx context.Context, id string) (*Project, error) {
	doc, err := r.client.Collection(collectionName).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p := documentToProject(doc)
	return &p, nil
}

// Update writes only the fields set in patch
func (r *FirestoreRepository) Update(ctx context.Context, id string, patch Patch) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	docRef := r.client.Collection(collectionName).Doc(id)

	// Check if document exists
	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check project existence: %w", err)
	}

	if _, err := docRef.Update(ctx, patchToUpdates(patch)); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// Delete removes a project by ID
func (r *FirestoreRepository) Delete(ctx context.Context, id string) error {
	docRef := r.client.Collection(collectionName).Doc(id)

	// Check if document exists
	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check project existence: %w", err)
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// fieldsToMap converts Fields to a map for Firestore storage
func fieldsToMap(f Fields) map[string]interface{} {
	data := map[string]interface{}{
		"title":       f.Title,
		"description": f.Description,
		"status":      string(f.Status),
	}
	if f.GitHubURL != "" {
		data["githubUrl"] = f.GitHubURL
	}
	return data
}

// patchToUpdates converts a Patch to Firestore field updates
func patchToUpdates(p Patch) []firestore.Update {
	var updates []firestore.Update
	if p.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *p.Title})
	}
	if p.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *p.Description})
	}
	if p.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*p.Status)})
	}
	if p.GitHubURL != nil {
		if *p.GitHubURL == "" {
			updates = append(updates, firestore.Update{Path: "githubUrl", Value: firestore.Delete})
		} else {
			updates = append(updates, firestore.Update{Path: "githubUrl", Value: *p.GitHubURL})
		}
	}
	return updates
}

// documentToProject converts a Firestore document to a Project
func documentToProject(doc *firestore.DocumentSnapshot) Project {
	data := doc.Data()

	p := Project{
		ID: doc.Ref.ID,
	}

	if userID, ok := data["userId"].(string); ok {
		p.UserID = userID
	}
	if title, ok := data["title"].(string); ok {
		p.Title = title
	}
	if description, ok := data["description"].(string); ok {
		p.Description = description
	}
	if s, ok := data["status"].(string); ok {
		p.Status = Status(s)
	}
	if u, ok := data["githubUrl"].(string); ok {
		p.GitHubURL = u
	}
	if t, ok := data["createdAt"].(time.Time); ok {
		p.CreatedAt = t
	}

	return p
}
