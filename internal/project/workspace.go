package project

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/otiai10/projectdeck/internal/store"
)

// Workspace is one user's view of their projects for a session.
// It keeps the last successfully fetched list and a persistent error
// banner that stays until dismissed or replaced.
type Workspace struct {
	repo      Repository
	validator *Validator
	userID    string

	mu       sync.RWMutex
	projects []Project
	banner   string
	loaded   bool
}

// NewWorkspace creates a Workspace for userID
func NewWorkspace(repo Repository, validator *Validator, userID string) *Workspace {
	if validator == nil {
		validator = NewValidator(false)
	}
	return &Workspace{
		repo:      repo,
		validator: validator,
		userID:    userID,
		projects:  []Project{},
	}
}

// UserID returns the owner of the workspace
func (w *Workspace) UserID() string {
	return w.userID
}

// Refresh reloads the list. On failure the previous list is kept and the
// banner is set.
func (w *Workspace) Refresh(ctx context.Context) error {
	projects, err := w.repo.List(ctx, w.userID)
	if err != nil {
		w.fail(store.OpFetch, err)
		return err
	}

	w.mu.Lock()
	w.projects = projects
	w.loaded = true
	w.mu.Unlock()
	return nil
}

// Projects returns a copy of the last-known-good list
func (w *Workspace) Projects() []Project {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]Project, len(w.projects))
	copy(result, w.projects)
	return result
}

// Count returns the length of the last-known-good list
func (w *Workspace) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.projects)
}

// Loaded reports whether at least one refresh succeeded
func (w *Workspace) Loaded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loaded
}

// Banner returns the current error banner, or ""
func (w *Workspace) Banner() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.banner
}

// DismissBanner clears the banner
func (w *Workspace) DismissBanner() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = ""
}

// Create validates fields, stores the project and refreshes the list
func (w *Workspace) Create(ctx context.Context, fields Fields) (Project, error) {
	fields, err := w.validator.Validate(fields)
	if err != nil {
		return Project{}, err
	}

	created, err := w.repo.Create(ctx, w.userID, fields)
	if err != nil {
		w.fail(store.OpAdd, err)
		return Project{}, err
	}

	w.refreshAfterWrite(ctx)
	return created, nil
}

// Get returns a project the user owns
func (w *Workspace) Get(ctx context.Context, id string) (Project, error) {
	p, err := w.repo.Get(ctx, id)
	if err != nil {
		return Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	if p == nil {
		return Project{}, ErrNotFound
	}
	if p.UserID != w.userID {
		return Project{}, ErrForbidden
	}
	return *p, nil
}

// Update applies a partial update to a project the user owns
func (w *Workspace) Update(ctx context.Context, id string, patch Patch) (Project, error) {
	if patch.IsEmpty() {
		return Project{}, ErrEmptyPatch
	}

	current, err := w.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}

	merged, err := w.validator.Validate(current.Fields().Apply(patch))
	if err != nil {
		return Project{}, err
	}
	patch = normalizedPatch(patch, merged)

	if err := w.repo.Update(ctx, id, patch); err != nil {
		if !errors.Is(err, ErrNotFound) {
			w.fail(store.OpUpdate, err)
		}
		return Project{}, err
	}

	w.refreshAfterWrite(ctx)

	updated := current
	updated.Title = merged.Title
	updated.Description = merged.Description
	updated.Status = merged.Status
	updated.GitHubURL = merged.GitHubURL
	return updated, nil
}

// Delete removes a project the user owns
func (w *Workspace) Delete(ctx context.Context, id string) error {
	if _, err := w.Get(ctx, id); err != nil {
		return err
	}

	if err := w.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, ErrNotFound) {
			w.fail(store.OpDelete, err)
		}
		return err
	}

	w.refreshAfterWrite(ctx)
	return nil
}

// refreshAfterWrite reloads the list after a mutation; a failure only
// sets the banner since the write itself succeeded.
func (w *Workspace) refreshAfterWrite(ctx context.Context) {
	if err := w.Refresh(ctx); err != nil {
		log.Printf("Failed to refresh projects for %s: %v", w.userID, err)
	}
}

func (w *Workspace) fail(op store.Operation, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banner = store.Banner(op, err)
}

// normalizedPatch replaces the set fields of p with their normalized values
func normalizedPatch(p Patch, f Fields) Patch {
	if p.Title != nil {
		p.Title = &f.Title
	}
	if p.Description != nil {
		p.Description = &f.Description
	}
	if p.Status != nil {
		p.Status = &f.Status
	}
	if p.GitHubURL != nil {
		p.GitHubURL = &f.GitHubURL
	}
	return p
}
