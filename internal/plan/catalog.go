package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFreePlan is returned when a catalog lacks the fallback tier
var ErrNoFreePlan = errors.New("catalog must contain the free plan")

// Catalog is a closed, ordered set of plans looked up by identifier.
// Identifiers are normalized (trimmed, lower-cased) at this boundary only.
type Catalog struct {
	plans []Plan
	index map[string]int
}

// NewCatalog creates a catalog from the given plans in display order.
// Plan IDs are stored in canonical form.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		plans: make([]Plan, 0, len(plans)),
		index: make(map[string]int, len(plans)),
	}

	for i, p := range plans {
		id := Normalize(p.ID)
		if id == "" {
			return nil, fmt.Errorf("plan[%d].id is required", i)
		}
		if _, exists := c.index[id]; exists {
			return nil, fmt.Errorf("duplicate plan id %q", id)
		}
		if err := p.Limits.validate(); err != nil {
			return nil, fmt.Errorf("plan %q: %w", id, err)
		}

		p = p.Copy()
		p.ID = id
		c.index[id] = len(c.plans)
		c.plans = append(c.plans, p)
	}

	if _, ok := c.index[FreeID]; !ok {
		return nil, ErrNoFreePlan
	}

	return c, nil
}

// DefaultCatalog returns the Free, Pro and Enterprise tiers
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Free, Pro, Enterprise)
	if err != nil {
		panic("plan: default catalog is invalid: " + err.Error())
	}
	return c
}

// Normalize returns the canonical form of a plan identifier
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Lookup returns the plan for id, or the Free plan when id is unknown or empty.
// It never fails.
func (c *Catalog) Lookup(id string) Plan {
	if p, ok := c.Get(id); ok {
		return p
	}
	return c.Free()
}

// Get returns the plan for id and whether it exists
func (c *Catalog) Get(id string) (Plan, bool) {
	i, ok := c.index[Normalize(id)]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i].Copy(), true
}

// IsKnown reports whether id names a plan in the catalog
func (c *Catalog) IsKnown(id string) bool {
	_, ok := c.index[Normalize(id)]
	return ok
}

// Free returns the fallback plan
func (c *Catalog) Free() Plan {
	return c.plans[c.index[FreeID]].Copy()
}

// Plans returns all plans in display order
func (c *Catalog) Plans() []Plan {
	result := make([]Plan, len(c.plans))
	for i, p := range c.plans {
		result[i] = p.Copy()
	}
	return result
}

// Len returns the number of plans
func (c *Catalog) Len() int {
	return len(c.plans)
}

func (l Limits) validate() error {
	if l.Projects < Unlimited {
		return fmt.Errorf("limits.projects must be >= %d, got %d", Unlimited, l.Projects)
	}
	if l.GitHubRequests < Unlimited {
		return fmt.Errorf("limits.github_requests must be >= %d, got %d", Unlimited, l.GitHubRequests)
	}
	if l.AnalyticsHistoryDays < Unlimited {
		return fmt.Errorf("limits.analytics_history_days must be >= %d, got %d", Unlimited, l.AnalyticsHistoryDays)
	}
	return nil
}
