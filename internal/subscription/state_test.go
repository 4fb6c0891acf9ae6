package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
)

// mockRepository is a hand-written Repository for State tests
type mockRepository struct {
	mu      sync.Mutex
	subs    map[string]Subscription
	getErr  error
	saveErr error
	saves   int
}

func newMockRepository() *mockRepository {
	return &mockRepository{subs: make(map[string]Subscription)}
}

func (m *mockRepository) Get(ctx context.Context, userID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	sub, ok := m.subs[userID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (m *mockRepository) Save(ctx context.Context, sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.subs[sub.UserID] = sub
	return nil
}

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestState(repo Repository) *State {
	return NewState(repo, plan.DefaultCatalog(), WithClock(func() time.Time { return fixedNow }))
}

func TestState_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("synthesizes free subscription when absent", func(t *testing.T) {
		repo := newMockRepository()
		s := newTestState(repo)

		sub, err := s.Load(ctx, "user-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if sub.PlanID != plan.FreeID {
			t.Errorf("PlanID = %q, want %q", sub.PlanID, plan.FreeID)
		}
		if sub.Status != StatusActive {
			t.Errorf("Status = %q, want %q", sub.Status, StatusActive)
		}
		if want := fixedNow.Add(30 * 24 * time.Hour); !sub.CurrentPeriodEnd.Equal(want) {
			t.Errorf("CurrentPeriodEnd = %v, want %v", sub.CurrentPeriodEnd, want)
		}
		if repo.saves != 0 {
			t.Errorf("synthesized subscription should not be persisted, saves = %d", repo.saves)
		}
		if !s.IsActive() {
			t.Error("IsActive() = false, want true")
		}
	})

	t.Run("returns stored record verbatim", func(t *testing.T) {
		repo := newMockRepository()
		stored := Subscription{
			ID:               "user-1",
			UserID:           "user-1",
			PlanID:           "enterprise",
			Status:           StatusInactive,
			CurrentPeriodEnd: fixedNow.Add(-time.Hour),
		}
		repo.subs["user-1"] = stored
		s := newTestState(repo)

		sub, err := s.Load(ctx, "user-1")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if sub != stored {
			t.Errorf("Load() = %+v, want %+v", sub, stored)
		}
		if s.CurrentPlan().ID != plan.EnterpriseID {
			t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.EnterpriseID)
		}
	})

	t.Run("falls back to free on repository error", func(t *testing.T) {
		repo := newMockRepository()
		repo.subs["user-1"] = Subscription{UserID: "user-1", PlanID: "pro", Status: StatusActive}
		s := newTestState(repo)
		if _, err := s.Load(ctx, "user-1"); err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		repo.getErr = errors.New("unavailable")
		if _, err := s.Load(ctx, "user-1"); err == nil {
			t.Fatal("Load() expected error")
		}

		if s.CurrentPlan().ID != plan.FreeID {
			t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.FreeID)
		}
		if s.IsActive() {
			t.Error("IsActive() = true, want false when nothing is loaded")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := newTestState(newMockRepository())
		first, _ := s.Load(ctx, "user-1")
		second, _ := s.Load(ctx, "user-1")
		if first != second {
			t.Errorf("Load() not idempotent: %+v != %+v", first, second)
		}
	})
}

func TestState_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changes plan and persists", func(t *testing.T) {
		repo := newMockRepository()
		s := newTestState(repo)
		loaded, _ := s.Load(ctx, "user-1")

		updated, err := s.Update(ctx, "Pro")
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.PlanID != plan.ProID {
			t.Errorf("PlanID = %q, want canonical %q", updated.PlanID, plan.ProID)
		}
		if updated.Status != loaded.Status || !updated.CurrentPeriodEnd.Equal(loaded.CurrentPeriodEnd) {
			t.Error("Update() must only change PlanID and UpdatedAt")
		}
		if repo.subs["user-1"].PlanID != plan.ProID {
			t.Errorf("stored PlanID = %q, want %q", repo.subs["user-1"].PlanID, plan.ProID)
		}
		if s.Limits().Projects != plan.Unlimited {
			t.Errorf("Limits().Projects = %d, want Unlimited", s.Limits().Projects)
		}
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		repo := newMockRepository()
		s := newTestState(repo)
		_, _ = s.Load(ctx, "user-1")

		_, err := s.Update(ctx, "platinum")
		if !errors.Is(err, ErrUnknownPlan) {
			t.Fatalf("Update() error = %v, want ErrUnknownPlan", err)
		}
		if repo.saves != 0 {
			t.Errorf("saves = %d, want 0", repo.saves)
		}
		if s.CurrentPlan().ID != plan.FreeID {
			t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.FreeID)
		}
	})

	t.Run("rejects update before load", func(t *testing.T) {
		s := newTestState(newMockRepository())

		if _, err := s.Update(ctx, "pro"); !errors.Is(err, ErrNotLoaded) {
			t.Errorf("Update() error = %v, want ErrNotLoaded", err)
		}
	})

	t.Run("keeps previous plan when save fails", func(t *testing.T) {
		repo := newMockRepository()
		s := newTestState(repo)
		_, _ = s.Load(ctx, "user-1")

		repo.saveErr = errors.New("permission denied")
		if _, err := s.Update(ctx, "pro"); err == nil {
			t.Fatal("Update() expected error")
		}
		if s.CurrentPlan().ID != plan.FreeID {
			t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.FreeID)
		}
	})
}

func TestState_IsActive(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		planID    string
		status    string
		periodEnd time.Time
		want      bool
	}{
		{"free always active", "free", StatusInactive, fixedNow.Add(-time.Hour), true},
		{"pro active in period", "pro", StatusActive, fixedNow.Add(time.Hour), true},
		{"pro active after period", "pro", StatusActive, fixedNow.Add(-time.Hour), false},
		{"pro inactive in period", "pro", StatusInactive, fixedNow.Add(time.Hour), false},
		{"period end equal to now", "enterprise", StatusActive, fixedNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			repo.subs["u"] = Subscription{UserID: "u", PlanID: tt.planID, Status: tt.status, CurrentPeriodEnd: tt.periodEnd}
			s := newTestState(repo)
			if _, err := s.Load(ctx, "u"); err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if got := s.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestState_Gating(t *testing.T) {
	ctx := context.Background()
	s := newTestState(newMockRepository())

	if s.CurrentPlan().ID != plan.FreeID {
		t.Errorf("CurrentPlan() before load = %q, want free", s.CurrentPlan().ID)
	}

	_, _ = s.Load(ctx, "user-1")
	if s.CanPerform(entitlement.ActionCreateProject, 3) {
		t.Error("free plan should not create a fourth project")
	}
	d := s.Decide(entitlement.ActionExportData, 0)
	if d.IsAllowed() {
		t.Error("free plan should not export data")
	}

	_, _ = s.Update(ctx, "enterprise")
	if !s.CanPerform(entitlement.ActionCreateProject, 3) {
		t.Error("enterprise plan should create unlimited projects")
	}
}

func TestState_UnknownStoredPlanResolvesToFree(t *testing.T) {
	repo := newMockRepository()
	repo.subs["u"] = Subscription{UserID: "u", PlanID: "legacy-gold", Status: StatusActive}
	s := newTestState(repo)
	_, _ = s.Load(context.Background(), "u")

	if s.CurrentPlan().ID != plan.FreeID {
		t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.FreeID)
	}
}

func TestState_Close(t *testing.T) {
	s := newTestState(newMockRepository())
	_, _ = s.Load(context.Background(), "user-1")

	s.Close()

	if _, ok := s.Subscription(); ok {
		t.Error("Subscription() should be cleared after Close")
	}
	if s.UserID() != "" {
		t.Errorf("UserID() = %q, want empty", s.UserID())
	}
}

func TestState_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	s := newTestState(newMockRepository())
	_, _ = s.Load(ctx, "user-1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				_, _ = s.Update(ctx, "pro")
				return
			}
			_ = s.CanPerform(entitlement.ActionCreateProject, i)
			_ = s.IsActive()
		}(i)
	}
	wg.Wait()

	if s.CurrentPlan().ID != plan.ProID {
		t.Errorf("CurrentPlan() = %q, want %q", s.CurrentPlan().ID, plan.ProID)
	}
}
