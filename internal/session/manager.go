package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/project"
	"github.com/otiai10/projectdeck/internal/quota"
	"github.com/otiai10/projectdeck/internal/subscription"
)

// Deps are the collaborators shared by every session
type Deps struct {
	Subscriptions subscription.Repository
	Projects      project.Repository
	Catalog       *plan.Catalog
	Checker       *quota.Checker
	Validator     *project.Validator
	Notifier      Notifier
	Clock         func() time.Time
	IdleTTL       time.Duration // zero uses DefaultIdleTTL
}

// DefaultIdleTTL is how long a session survives without requests
const DefaultIdleTTL = 2 * time.Hour

// Manager owns the live sessions keyed by user ID.
// Sessions idle for longer than the TTL are released.
type Manager struct {
	deps Deps

	mu       sync.Mutex // serializes insert-if-absent
	sessions *cache.Cache
	opening  singleflight.Group
}

// NewManager creates a Manager. Missing optional deps get defaults.
func NewManager(deps Deps) *Manager {
	if deps.Catalog == nil {
		deps.Catalog = plan.DefaultCatalog()
	}
	if deps.Checker == nil {
		deps.Checker = quota.NewChecker(deps.Projects, nil)
	}
	if deps.Validator == nil {
		deps.Validator = project.NewValidator(false)
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = DefaultIdleTTL
	}

	sessions := cache.New(deps.IdleTTL, deps.IdleTTL)
	sessions.OnEvicted(func(uid string, v any) {
		v.(*Session).state.Close()
		log.Printf("Session released for %s", uid)
	})
	return &Manager{
		deps:     deps,
		sessions: sessions,
	}
}

// Open returns the session of uid, constructing it on first use.
// Construction loads the subscription and the project list; failures of
// either are logged and leave the session on the Free fallback and an
// empty list with a banner. Store calls run without holding the manager
// lock, and concurrent first requests of one user share a single load.
func (m *Manager) Open(ctx context.Context, uid string) *Session {
	if s, ok := m.Get(uid); ok {
		return s
	}

	v, _, _ := m.opening.Do(uid, func() (any, error) {
		if s, ok := m.Get(uid); ok {
			return s, nil
		}
		s := m.build(ctx, uid)

		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.sessions.Get(uid); ok {
			return existing.(*Session), nil
		}
		m.sessions.SetDefault(uid, s)
		log.Printf("Session opened for %s (plan: %s)", uid, s.state.CurrentPlan().ID)
		return s, nil
	})
	return v.(*Session)
}

func (m *Manager) build(ctx context.Context, uid string) *Session {
	state := subscription.NewState(m.deps.Subscriptions, m.deps.Catalog, subscription.WithClock(m.deps.Clock))
	if _, err := state.Load(ctx, uid); err != nil {
		log.Printf("Failed to load subscription for %s: %v", uid, err)
	}

	workspace := project.NewWorkspace(m.deps.Projects, m.deps.Validator, uid)
	if err := workspace.Refresh(ctx); err != nil {
		log.Printf("Failed to load projects for %s: %v", uid, err)
	}

	return &Session{
		userID:    uid,
		state:     state,
		workspace: workspace,
		checker:   m.deps.Checker,
		notifier:  m.deps.Notifier,
		now:       m.deps.Clock,
	}
}

// Get returns the live session of uid and extends its idle deadline
func (m *Manager) Get(uid string) (*Session, bool) {
	v, ok := m.sessions.Get(uid)
	if !ok {
		return nil, false
	}
	s := v.(*Session)

	m.mu.Lock()
	if _, ok := m.sessions.Get(uid); ok {
		m.sessions.SetDefault(uid, s)
	}
	m.mu.Unlock()
	return s, true
}

// Close disposes the session of uid and notifies its listeners.
// Closing an unknown uid is a no-op.
func (m *Manager) Close(uid string) {
	m.mu.Lock()
	v, ok := m.sessions.Get(uid)
	if ok {
		m.sessions.Delete(uid) // releases the state
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	v.(*Session).notify(EventSignedOut, nil)
	log.Printf("Session closed for %s", uid)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	return len(m.sessions.Items())
}

// Catalog returns the plan catalog sessions resolve against
func (m *Manager) Catalog() *plan.Catalog {
	return m.deps.Catalog
}

// ApplyPlan changes the plan of uid whether or not the user has a live
// session. Used by payment webhooks.
func (m *Manager) ApplyPlan(ctx context.Context, uid, planID string) (subscription.Subscription, error) {
	if s, ok := m.Get(uid); ok {
		return s.ChangePlan(ctx, planID)
	}

	state := subscription.NewState(m.deps.Subscriptions, m.deps.Catalog, subscription.WithClock(m.deps.Clock))
	if _, err := state.Load(ctx, uid); err != nil {
		return subscription.Subscription{}, err
	}
	sub, err := state.Update(ctx, planID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	m.deps.Notifier.Notify(uid, Event{Type: EventSubscription, Data: sub, At: m.deps.Clock()})
	return sub, nil
}
