// Package project stores the projects a user tracks on the dashboard.
package project

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a project does not exist
	ErrNotFound = errors.New("project not found")

	// ErrForbidden is returned when a project belongs to another user
	ErrForbidden = errors.New("project belongs to another user")

	// ErrEmptyPatch is returned by Update when no field is set
	ErrEmptyPatch = errors.New("no fields to update")
)

// Status is the lifecycle stage of a project
type Status string

const (
	StatusPlanning   Status = "Planning"
	StatusInProgress Status = "In Progress"
	StatusTesting    Status = "Testing"
	StatusCompleted  Status = "Completed"
	StatusOnHold     Status = "On Hold"
	StatusCancelled  Status = "Cancelled"
)

// Statuses lists every status in form order
var Statuses = []Status{
	StatusPlanning,
	StatusInProgress,
	StatusTesting,
	StatusCompleted,
	StatusOnHold,
	StatusCancelled,
}

// Valid reports whether s is one of Statuses
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Project is a user-owned record
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	GitHubURL   string    `json:"githubUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Fields are the user-editable attributes of a new project
type Fields struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Status      Status `json:"status" validate:"required,project_status"`
	GitHubURL   string `json:"githubUrl" validate:"omitempty,repository_url"`
}

// Normalize trims text fields and defaults the status to Planning
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.GitHubURL = strings.TrimSpace(f.GitHubURL)
	f.Status = Status(strings.TrimSpace(string(f.Status)))
	if f.Status == "" {
		f.Status = StatusPlanning
	}
	return f
}

// Patch is a partial update; nil fields are left unchanged
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	GitHubURL   *string `json:"githubUrl,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.GitHubURL == nil
}

// Fields returns the editable attributes of p
func (p Project) Fields() Fields {
	return Fields{
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		GitHubURL:   p.GitHubURL,
	}
}

// Apply returns f with the patch applied
func (f Fields) Apply(p Patch) Fields {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.GitHubURL != nil {
		f.GitHubURL = *p.GitHubURL
	}
	return f
}

// Repository defines the interface for project storage
type Repository interface {
	// List returns the projects of a user, newest first
	List(ctx context.Context, userID string) ([]Project, error)

	// Count returns the number of projects a user owns
	Count(ctx context.Context, userID string) (int, error)

	// Create stores a new project and returns it as persisted,
	// including the server-assigned creation time
	Create(ctx context.Context, userID string, fields Fields) (Project, error)

	// Get retrieves a project by ID
	// Returns nil and no error if not found
	Get(ctx context.Context, id string) (*Project, error)

	// Update applies a partial update
	// Returns ErrNotFound if the project does not exist
	Update(ctx context.Context, id string, patch Patch) error

	// Delete removes a project by ID
	// Returns ErrNotFound if the project does not exist
	Delete(ctx context.Context, id string) error
}

// SortNewestFirst orders projects by CreatedAt descending.
// Projects without a creation time sort last.
func SortNewestFirst(projects []Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i].CreatedAt, projects[j].CreatedAt
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
}
