package session

import (
	"context"
	"sync"
	"time"

	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/project"
	"github.com/otiai10/projectdeck/internal/quota"
	"github.com/otiai10/projectdeck/internal/subscription"
)

// Session is the working state of one signed-in user
type Session struct {
	userID    string
	state     *subscription.State
	workspace *project.Workspace
	checker   *quota.Checker
	notifier  Notifier
	now       func() time.Time

	// createMu serializes check-then-create
	createMu sync.Mutex
}

// UserID returns the owner of the session
func (s *Session) UserID() string {
	return s.userID
}

// State returns the subscription state
func (s *Session) State() *subscription.State {
	return s.state
}

// Workspace returns the project workspace
func (s *Session) Workspace() *project.Workspace {
	return s.workspace
}

// Plan returns the current plan
func (s *Session) Plan() plan.Plan {
	return s.state.CurrentPlan()
}

// CreateProject checks the project limit and creates the project.
// Concurrent calls within a session are serialized so two submissions
// cannot both pass the check.
func (s *Session) CreateProject(ctx context.Context, fields project.Fields) (project.Project, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	decision, err := s.checker.CheckCreateProject(ctx, s.userID, s.Plan())
	if err != nil {
		return project.Project{}, err
	}
	if err := decision.Err(); err != nil {
		return project.Project{}, err
	}

	created, err := s.workspace.Create(ctx, fields)
	if err != nil {
		return project.Project{}, err
	}
	s.notifyProjects()
	return created, nil
}

// UpdateProject applies a partial update
func (s *Session) UpdateProject(ctx context.Context, id string, patch project.Patch) (project.Project, error) {
	updated, err := s.workspace.Update(ctx, id, patch)
	if err != nil {
		return project.Project{}, err
	}
	s.notifyProjects()
	return updated, nil
}

// DeleteProject removes a project
func (s *Session) DeleteProject(ctx context.Context, id string) error {
	if err := s.workspace.Delete(ctx, id); err != nil {
		return err
	}
	s.notifyProjects()
	return nil
}

// AddDemoData creates the sample projects until the plan limit is hit.
// It returns the projects created; the error is non-nil only when nothing
// could be created.
func (s *Session) AddDemoData(ctx context.Context) ([]project.Project, error) {
	var created []project.Project
	for _, fields := range project.SampleProjects() {
		p, err := s.CreateProject(ctx, fields)
		if err != nil {
			if len(created) > 0 {
				break
			}
			return nil, err
		}
		created = append(created, p)
	}
	return created, nil
}

// ChangePlan switches the subscription to planID
func (s *Session) ChangePlan(ctx context.Context, planID string) (subscription.Subscription, error) {
	sub, err := s.state.Update(ctx, planID)
	if err != nil {
		return subscription.Subscription{}, err
	}
	s.notify(EventSubscription, sub)
	return sub, nil
}

// UseExternalAPI records one external API call when the plan allows it
func (s *Session) UseExternalAPI() entitlement.Decision {
	return s.checker.ConsumeExternalAPICall(s.userID, s.Plan())
}

// Decide runs the feature gate for action with an explicit usage count
func (s *Session) Decide(action entitlement.Action, usage int) entitlement.Decision {
	return s.state.Decide(action, usage)
}

// Usage returns the usage indicators of the limited resources
func (s *Session) Usage() []entitlement.UsageInfo {
	p := s.Plan()
	projects, _ := entitlement.Usage(p, entitlement.ResourceProjects, s.workspace.Count())
	requests, _ := entitlement.Usage(p, entitlement.ResourceGitHubRequests, s.checker.ExternalAPIUsage(s.userID))
	return []entitlement.UsageInfo{projects, requests}
}

func (s *Session) notifyProjects() {
	s.notify(EventProjects, ProjectsChanged{
		Count:  s.workspace.Count(),
		Banner: s.workspace.Banner(),
	})
}

func (s *Session) notify(t EventType, data any) {
	s.notifier.Notify(s.userID, Event{Type: t, Data: data, At: s.now()})
}
