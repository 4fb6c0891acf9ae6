package entitlement

import (
	"errors"
	"fmt"

	"github.com/otiai10/projectdeck/internal/plan"
)

// ErrRestricted is wrapped by RestrictedError
var ErrRestricted = errors.New("action restricted by plan")

// Outcome is the result of a gate decision
type Outcome string

const (
	Allowed    Outcome = "allowed"
	Restricted Outcome = "restricted"
)

// Restriction is the user-facing explanation of a denial
type Restriction struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Decision is what the gate tells the presentation layer
type Decision struct {
	Action      Action       `json:"-"`
	Outcome     Outcome      `json:"outcome"`
	Restriction *Restriction `json:"restriction,omitempty"`
}

// IsAllowed reports whether the action may proceed
func (d Decision) IsAllowed() bool {
	return d.Outcome == Allowed
}

// Err returns a *RestrictedError for restricted decisions, nil otherwise
func (d Decision) Err() error {
	if d.IsAllowed() {
		return nil
	}
	return &RestrictedError{Action: d.Action, Restriction: *d.Restriction}
}

// RestrictedError carries a Restriction through error returns
type RestrictedError struct {
	Action      Action
	Restriction Restriction
}

func (e *RestrictedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Restriction.Message)
}

func (e *RestrictedError) Unwrap() error {
	return ErrRestricted
}

type restrictionTemplate struct {
	title      string
	message    func(p plan.Plan) string
	suggestion string
}

var fallbackRestriction = restrictionTemplate{
	title: "Feature Restricted",
	message: func(p plan.Plan) string {
		return fmt.Sprintf("This feature is not available on the %s plan.", p.Name)
	},
	suggestion: "Consider upgrading for access to more features.",
}

var restrictions = [...]restrictionTemplate{
	ActionUnknown: fallbackRestriction,
	ActionCreateProject: {
		title: "Project Limit Reached",
		message: func(p plan.Plan) string {
			return fmt.Sprintf("You've reached the maximum of %d projects on the %s plan.", p.Limits.Projects, p.Name)
		},
		suggestion: "Upgrade to Pro for unlimited projects.",
	},
	ActionExternalAPICall: {
		title: "API Limit Reached",
		message: func(p plan.Plan) string {
			return fmt.Sprintf("You've used all %d GitHub API requests this month.", p.Limits.GitHubRequests)
		},
		suggestion: "Upgrade for higher API limits.",
	},
	ActionViewAnalytics: fallbackRestriction,
	ActionExportData: {
		title: "Premium Feature",
		message: func(plan.Plan) string {
			return "Data export is available on Pro and Enterprise plans."
		},
		suggestion: "Upgrade to access advanced export features.",
	},
	ActionTeamCollaboration: {
		title: "Team Feature",
		message: func(plan.Plan) string {
			return "Team collaboration is available on Pro and Enterprise plans."
		},
		suggestion: "Upgrade to collaborate with your team.",
	},
}

var _ = [1]int{}[len(restrictions)-int(numActions)]

// RestrictionFor returns the message shown when p denies a
func RestrictionFor(p plan.Plan, a Action) Restriction {
	t := fallbackRestriction
	if a >= 0 && a < numActions {
		t = restrictions[a]
	}
	return Restriction{
		Title:      t.title,
		Message:    t.message(p),
		Suggestion: t.suggestion,
	}
}

// Decide evaluates a against p and attaches a restriction when denied
func Decide(p plan.Plan, a Action, usage int) Decision {
	if CanPerform(p, a, usage) {
		return Decision{Action: a, Outcome: Allowed}
	}
	r := RestrictionFor(p, a)
	return Decision{Action: a, Outcome: Restricted, Restriction: &r}
}
