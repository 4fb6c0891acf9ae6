// Package plan holds the subscription tiers offered by projectdeck.
package plan

// Unlimited is the limit value meaning "no cap applies".
// A limit of 0 means nothing is allowed.
const Unlimited = -1

// Plan identifiers of the reference catalog
const (
	FreeID       = "free"
	ProID        = "pro"
	EnterpriseID = "enterprise"
)

// Limits defines usage caps per plan
type Limits struct {
	Projects             int `json:"projects" yaml:"projects"`
	GitHubRequests       int `json:"githubRequests" yaml:"github_requests"`
	AnalyticsHistoryDays int `json:"analyticsHistory" yaml:"analytics_history_days"`
}

// Plan is an immutable subscription tier
type Plan struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Price             int      `json:"price" yaml:"price"`
	Interval          string   `json:"interval" yaml:"interval"`
	Features          []string `json:"features" yaml:"features"`
	Limits            Limits   `json:"limits" yaml:"limits"`
	TeamCollaboration bool     `json:"teamCollaboration" yaml:"team_collaboration"`
	StripePriceID     string   `json:"-" yaml:"stripe_price_id,omitempty"`
	ButtonText        string   `json:"buttonText" yaml:"button_text"`
	Popular           bool     `json:"popular" yaml:"popular"`
}

// IsFree reports whether p is the fallback tier
func (p Plan) IsFree() bool {
	return p.ID == FreeID
}

// IsPaid reports whether p costs money
func (p Plan) IsPaid() bool {
	return p.Price > 0
}

// UnlimitedProjects reports whether p has no project cap
func (p Plan) UnlimitedProjects() bool {
	return p.Limits.Projects == Unlimited
}

// Copy returns a deep copy so callers cannot mutate catalog entries
func (p Plan) Copy() Plan {
	copied := p
	if p.Features != nil {
		copied.Features = make([]string, len(p.Features))
		copy(copied.Features, p.Features)
	}
	return copied
}

// Free is the reference Free tier
var Free = Plan{
	ID:       FreeID,
	Name:     "Free",
	Price:    0,
	Interval: "month",
	Features: []string{
		"Up to 3 projects",
		"Basic analytics",
		"GitHub integration (limited)",
		"Community support",
	},
	Limits: Limits{
		Projects:             3,
		GitHubRequests:       10,
		AnalyticsHistoryDays: 7,
	},
	ButtonText: "Current Plan",
}

// Pro is the reference Pro tier
var Pro = Plan{
	ID:       ProID,
	Name:     "Pro",
	Price:    19,
	Interval: "month",
	Features: []string{
		"Unlimited projects",
		"Advanced analytics",
		"Full GitHub integration",
		"Priority support",
		"Export data",
		"Team collaboration",
	},
	Limits: Limits{
		Projects:             Unlimited,
		GitHubRequests:       100,
		AnalyticsHistoryDays: 30,
	},
	TeamCollaboration: true,
	ButtonText:        "Upgrade to Pro",
	Popular:           true,
}

// Enterprise is the reference Enterprise tier
var Enterprise = Plan{
	ID:       EnterpriseID,
	Name:     "Enterprise",
	Price:    49,
	Interval: "month",
	Features: []string{
		"Everything in Pro",
		"Advanced security",
		"Custom integrations",
		"Dedicated support",
		"SLA guarantee",
		"On-premise deployment",
	},
	Limits: Limits{
		Projects:             Unlimited,
		GitHubRequests:       1000,
		AnalyticsHistoryDays: 365,
	},
	TeamCollaboration: true,
	ButtonText:        "Contact Sales",
}
