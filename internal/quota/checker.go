package quota

import (
	"context"
	"fmt"

	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
)

// QuotaChecker checks if operations are allowed within quota
type QuotaChecker interface {
	// CheckCreateProject decides whether the user may add one more project
	CheckCreateProject(ctx context.Context, userID string, p plan.Plan) (entitlement.Decision, error)

	// ConsumeExternalAPICall decides whether the user may make one more
	// external API call and counts it when allowed
	ConsumeExternalAPICall(userID string, p plan.Plan) entitlement.Decision
}

// Checker implements QuotaChecker using the project repository and a Meter
type Checker struct {
	projects ProjectCounter
	meter    *Meter
}

var _ QuotaChecker = (*Checker)(nil)

// NewChecker creates a new Checker instance.
// A nil meter gets a fresh in-memory Meter.
func NewChecker(projects ProjectCounter, meter *Meter) *Checker {
	if meter == nil {
		meter = NewMeter()
	}
	return &Checker{
		projects: projects,
		meter:    meter,
	}
}

// ProjectCount returns how many projects userID owns
func (c *Checker) ProjectCount(ctx context.Context, userID string) (int, error) {
	n, err := c.projects.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count user projects: %w", err)
	}
	return n, nil
}

// CheckCreateProject counts the user's projects and asks the feature gate
func (c *Checker) CheckCreateProject(ctx context.Context, userID string, p plan.Plan) (entitlement.Decision, error) {
	n, err := c.ProjectCount(ctx, userID)
	if err != nil {
		return entitlement.Decision{}, err
	}
	return entitlement.Decide(p, entitlement.ActionCreateProject, n), nil
}

// ConsumeExternalAPICall checks this month's call count and records the call when allowed
func (c *Checker) ConsumeExternalAPICall(userID string, p plan.Plan) entitlement.Decision {
	var decision entitlement.Decision
	c.meter.Consume(userID, func(current int) bool {
		decision = entitlement.Decide(p, entitlement.ActionExternalAPICall, current)
		return decision.IsAllowed()
	})
	return decision
}

// ExternalAPIUsage returns this month's external API call count
func (c *Checker) ExternalAPIUsage(userID string) int {
	return c.meter.Used(userID)
}
