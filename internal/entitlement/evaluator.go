package entitlement

import "github.com/otiai10/projectdeck/internal/plan"

// CanPerform reports whether plan p permits action a at the given usage.
// usage is the caller's current count for countable actions and is ignored otherwise.
func CanPerform(p plan.Plan, a Action, usage int) bool {
	switch a {
	case ActionCreateProject:
		return withinLimit(p.Limits.Projects, usage)
	case ActionExternalAPICall:
		return withinLimit(p.Limits.GitHubRequests, usage)
	case ActionViewAnalytics:
		return true
	case ActionExportData:
		return !p.IsFree()
	case ActionTeamCollaboration:
		return p.TeamCollaboration
	default:
		// Unknown actions are allowed
		return true
	}
}

func withinLimit(limit, usage int) bool {
	if limit == plan.Unlimited {
		return true
	}
	return usage < limit
}
