package project

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	tick := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	first, err := repo.Create(ctx, "u1", Fields{Title: "First", Description: "d", Status: StatusPlanning})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("Create() should assign ID and CreatedAt, got %+v", first)
	}
	second, _ := repo.Create(ctx, "u1", Fields{Title: "Second", Description: "d", Status: StatusPlanning})
	_, _ = repo.Create(ctx, "u2", Fields{Title: "Other", Description: "d", Status: StatusPlanning})

	list, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("List()[0] = %q, want newest %q", list[0].Title, "Second")
	}

	count, _ := repo.Count(ctx, "u1")
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	status := StatusCompleted
	if err := repo.Update(ctx, first.ID, Patch{Status: &status}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := repo.Get(ctx, first.ID)
	if got.Status != StatusCompleted || got.Title != "First" {
		t.Errorf("Get() after update = %+v", got)
	}

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := repo.Get(ctx, first.ID); got != nil {
		t.Errorf("Get() after delete = %+v, want nil", got)
	}
}

func TestMemoryRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	title := "x"

	if err := repo.Update(ctx, "missing", Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, "missing", Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Errorf("Update() error = %v, want ErrEmptyPatch", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSeedSamples(t *testing.T) {
	repo := NewMemoryRepository()
	SeedSamples(repo, "demo")

	list, _ := repo.List(context.Background(), "demo")
	if len(list) != 5 {
		t.Fatalf("len(List()) = %d, want 5", len(list))
	}
	if list[0].Title != "Responsive Design System" {
		t.Errorf("newest sample = %q, want %q", list[0].Title, "Responsive Design System")
	}
}
