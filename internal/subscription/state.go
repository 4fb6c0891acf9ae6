package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
)

var (
	// ErrUnknownPlan is returned by Update for a plan id the catalog lacks
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrNotLoaded is returned by Update before a successful Load
	ErrNotLoaded = errors.New("subscription not loaded")
)

// State holds the subscription of the signed-in user for one session.
// Reads are safe from concurrent goroutines; Load and Update are serialized.
type State struct {
	repo    Repository
	catalog *plan.Catalog
	now     func() time.Time

	// writeMu serializes Load and Update including their I/O
	writeMu sync.Mutex

	mu     sync.RWMutex
	userID string
	sub    *Subscription
}

// StateOption configures a State
type StateOption func(*State)

// WithClock overrides the time source
func WithClock(now func() time.Time) StateOption {
	return func(s *State) {
		s.now = now
	}
}

// NewState creates a State reading plans from catalog.
// A nil catalog uses plan.DefaultCatalog().
func NewState(repo Repository, catalog *plan.Catalog, opts ...StateOption) *State {
	if catalog == nil {
		catalog = plan.DefaultCatalog()
	}
	s := &State{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the subscription of userID.
// When no record is stored it synthesizes an active Free subscription with a
// period ending in 30 days; the synthesized record is not persisted.
// On a repository error the holder stays on the Free fallback and the error is returned.
func (s *State) Load(ctx context.Context, userID string) (Subscription, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.set(userID, nil)
		return Subscription{}, fmt.Errorf("failed to load subscription: %w", err)
	}

	var sub Subscription
	if stored != nil {
		sub = *stored
	} else {
		now := s.now()
		sub = Subscription{
			ID:               userID,
			UserID:           userID,
			PlanID:           plan.FreeID,
			Status:           StatusActive,
			CurrentPeriodEnd: now.Add(DefaultPeriod),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}

	s.set(userID, &sub)
	return sub, nil
}

// Update changes the plan of the loaded subscription and persists it.
// Only PlanID and UpdatedAt change. The in-memory record is replaced only
// after a successful write.
func (s *State) Update(ctx context.Context, planID string) (Subscription, error) {
	p, ok := s.catalog.Get(planID)
	if !ok {
		return Subscription{}, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, ok := s.Subscription()
	if !ok {
		return Subscription{}, ErrNotLoaded
	}

	updated := current
	updated.PlanID = p.ID
	updated.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, updated); err != nil {
		return Subscription{}, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.set(updated.UserID, &updated)
	return updated, nil
}

func (s *State) set(userID string, sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.sub = sub
}

// UserID returns the user the state was last loaded for
func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Subscription returns a copy of the loaded record and whether one is loaded
func (s *State) Subscription() (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sub == nil {
		return Subscription{}, false
	}
	return *s.sub, true
}

// CurrentPlan returns the plan of the loaded record, or Free when nothing is loaded
func (s *State) CurrentPlan() plan.Plan {
	sub, ok := s.Subscription()
	if !ok {
		return s.catalog.Free()
	}
	return s.catalog.Lookup(sub.PlanID)
}

// Limits returns the limits of the current plan
func (s *State) Limits() plan.Limits {
	return s.CurrentPlan().Limits
}

// IsActive reports whether the subscription is in good standing.
// Free is always active. Nothing loaded is inactive.
func (s *State) IsActive() bool {
	sub, ok := s.Subscription()
	if !ok {
		return false
	}
	if s.catalog.Lookup(sub.PlanID).IsFree() {
		return true
	}
	return sub.Status == StatusActive && s.now().Before(sub.CurrentPeriodEnd)
}

// CanPerform evaluates action against the current plan
func (s *State) CanPerform(action entitlement.Action, usage int) bool {
	return entitlement.CanPerform(s.CurrentPlan(), action, usage)
}

// Decide runs the feature gate against the current plan
func (s *State) Decide(action entitlement.Action, usage int) entitlement.Decision {
	return entitlement.Decide(s.CurrentPlan(), action, usage)
}

// Catalog returns the plan catalog the state resolves against
func (s *State) Catalog() *plan.Catalog {
	return s.catalog
}

// Close clears the working memory on logout
func (s *State) Close() {
	s.set("", nil)
}
