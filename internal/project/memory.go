package project

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps projects in process memory.
// Used for --test-mode and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]Project
	now      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[string]Project),
		now:      time.Now,
	}
}

// List returns userID's projects, newest first
func (r *MemoryRepository) List(ctx context.Context, userID string) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Project, 0)
	for _, p := range r.projects {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	SortNewestFirst(result)
	return result, nil
}

// Count returns the number of projects owned by userID
func (r *MemoryRepository) Count(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.projects {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Create stores a project with a generated ID
func (r *MemoryRepository) Create(ctx context.Context, userID string, fields Fields) (Project, error) {
	p := Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		GitHubURL:   fields.GitHubURL,
		CreatedAt:   r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = p
	return p, nil
}

// Insert stores p as-is, keeping its ID and CreatedAt
func (r *MemoryRepository) Insert(p Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.projects[p.ID] = p
}

// Get returns a copy of a project, or nil if absent
func (r *MemoryRepository) Get(ctx context.Context, id string) (*Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Update applies patch to a stored project
func (r *MemoryRepository) Update(ctx context.Context, id string, patch Patch) error {
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[id]
	if !ok {
		return ErrNotFound
	}

	f := p.Fields().Apply(patch)
	p.Title = f.Title
	p.Description = f.Description
	p.Status = f.Status
	p.GitHubURL = f.GitHubURL
	r.projects[id] = p
	return nil
}

// Delete removes a project
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return ErrNotFound
	}
	delete(r.projects, id)
	return nil
}
