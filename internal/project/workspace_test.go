package project

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// failingRepository wraps a MemoryRepository and injects errors
type failingRepository struct {
	*MemoryRepository
	listErr   error
	createErr error
	updateErr error
	deleteErr error
}

func (r *failingRepository) List(ctx context.Context, userID string) ([]Project, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryRepository.List(ctx, userID)
}

func (r *failingRepository) Create(ctx context.Context, userID string, f Fields) (Project, error) {
	if r.createErr != nil {
		return Project{}, r.createErr
	}
	return r.MemoryRepository.Create(ctx, userID, f)
}

func (r *failingRepository) Update(ctx context.Context, id string, p Patch) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	return r.MemoryRepository.Update(ctx, id, p)
}

func (r *failingRepository) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.MemoryRepository.Delete(ctx, id)
}

func newFailingRepository() *failingRepository {
	return &failingRepository{MemoryRepository: NewMemoryRepository()}
}

func TestWorkspace_CreateRefreshes(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(NewMemoryRepository(), nil, "u1")

	created, err := ws.Create(ctx, Fields{Title: "  Site ", Description: "Landing page"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Title != "Site" || created.Status != StatusPlanning {
		t.Errorf("Create() = %+v, want normalized fields", created)
	}

	projects := ws.Projects()
	if len(projects) != 1 || projects[0].ID != created.ID {
		t.Errorf("Projects() = %+v, want the created project", projects)
	}
	if ws.Banner() != "" {
		t.Errorf("Banner() = %q, want empty", ws.Banner())
	}
}

func TestWorkspace_CreateValidation(t *testing.T) {
	ws := NewWorkspace(NewMemoryRepository(), nil, "u1")

	_, err := ws.Create(context.Background(), Fields{Title: "", Description: ""})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Create() error = %v, want *ValidationError", err)
	}
	if ws.Banner() != "" {
		t.Errorf("validation errors must not set the banner, got %q", ws.Banner())
	}
}

func TestWorkspace_RefreshFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	repo := newFailingRepository()
	ws := NewWorkspace(repo, nil, "u1")

	if _, err := ws.Create(ctx, Fields{Title: "A", Description: "B"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	repo.listErr = status.Error(codes.PermissionDenied, "denied")
	if err := ws.Refresh(ctx); err == nil {
		t.Fatal("Refresh() expected error")
	}

	if len(ws.Projects()) != 1 {
		t.Errorf("Projects() should keep the last-known-good list, got %d", len(ws.Projects()))
	}
	if ws.Banner() != "Permission denied. Please check Firestore security rules." {
		t.Errorf("Banner() = %q", ws.Banner())
	}

	ws.DismissBanner()
	if ws.Banner() != "" {
		t.Errorf("Banner() after dismiss = %q", ws.Banner())
	}
}

func TestWorkspace_BannerPerOperation(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("add", func(t *testing.T) {
		repo := newFailingRepository()
		repo.createErr = boom
		ws := NewWorkspace(repo, nil, "u1")

		if _, err := ws.Create(ctx, Fields{Title: "A", Description: "B"}); !errors.Is(err, boom) {
			t.Fatalf("Create() error = %v", err)
		}
		if ws.Banner() != "Failed to add project: boom" {
			t.Errorf("Banner() = %q", ws.Banner())
		}
	})

	t.Run("update", func(t *testing.T) {
		repo := newFailingRepository()
		ws := NewWorkspace(repo, nil, "u1")
		p, _ := ws.Create(ctx, Fields{Title: "A", Description: "B"})

		repo.updateErr = boom
		title := "C"
		if _, err := ws.Update(ctx, p.ID, Patch{Title: &title}); !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v", err)
		}
		if ws.Banner() != "Failed to update project" {
			t.Errorf("Banner() = %q", ws.Banner())
		}
	})

	t.Run("delete", func(t *testing.T) {
		repo := newFailingRepository()
		ws := NewWorkspace(repo, nil, "u1")
		p, _ := ws.Create(ctx, Fields{Title: "A", Description: "B"})

		repo.deleteErr = status.Error(codes.Unavailable, "down")
		if err := ws.Delete(ctx, p.ID); err == nil {
			t.Fatal("Delete() expected error")
		}
		if ws.Banner() != "Firestore service unavailable. Please try again later." {
			t.Errorf("Banner() = %q", ws.Banner())
		}
	})
}

func TestWorkspace_Ownership(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	owner := NewWorkspace(repo, nil, "owner")
	intruder := NewWorkspace(repo, nil, "intruder")

	p, err := owner.Create(ctx, Fields{Title: "Private", Description: "mine"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	title := "Hijacked"
	if _, err := intruder.Update(ctx, p.ID, Patch{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
	if err := intruder.Delete(ctx, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() error = %v, want ErrForbidden", err)
	}
	if _, err := intruder.Get(ctx, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() error = %v, want ErrForbidden", err)
	}
	if _, err := owner.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestWorkspace_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(NewMemoryRepository(), nil, "u1")
	p, _ := ws.Create(ctx, Fields{Title: "A", Description: "B"})

	status := StatusInProgress
	desc := "  Updated  "
	updated, err := ws.Update(ctx, p.ID, Patch{Status: &status, Description: &desc})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != StatusInProgress || updated.Description != "Updated" || updated.Title != "A" {
		t.Errorf("Update() = %+v", updated)
	}
	if ws.Projects()[0].Description != "Updated" {
		t.Errorf("list not refreshed after update: %+v", ws.Projects()[0])
	}

	if _, err := ws.Update(ctx, p.ID, Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Errorf("Update() error = %v, want ErrEmptyPatch", err)
	}

	bad := Status("Shipped")
	if _, err := ws.Update(ctx, p.ID, Patch{Status: &bad}); err == nil {
		t.Error("Update() should reject unknown status")
	}

	if err := ws.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ws.Count() != 0 {
		t.Errorf("Count() after delete = %d, want 0", ws.Count())
	}
}
