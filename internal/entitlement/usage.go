package entitlement

import (
	"fmt"

	"github.com/otiai10/projectdeck/internal/plan"
)

// Resources with a countable limit
const (
	ResourceProjects       = "projects"
	ResourceGitHubRequests = "githubRequests"
)

// NearLimitPercent is the usage share at which a warning is shown
const NearLimitPercent = 80

// UsageInfo describes how much of a limit has been consumed
type UsageInfo struct {
	Resource    string `json:"resource"`
	Label       string `json:"label"`
	Current     int    `json:"current"`
	Limit       int    `json:"limit"`
	Unlimited   bool   `json:"unlimited"`
	Percent     int    `json:"percent"`
	NearLimit   bool   `json:"nearLimit"`
	AtLimit     bool   `json:"atLimit"`
	UpgradeHint string `json:"upgradeHint,omitempty"`
}

// Usage returns the usage indicator for resource under p
func Usage(p plan.Plan, resource string, current int) (UsageInfo, error) {
	info := UsageInfo{Resource: resource, Current: current}
	var hint string

	switch resource {
	case ResourceProjects:
		info.Label = "Projects"
		info.Limit = p.Limits.Projects
		hint = "Upgrade to Pro for unlimited projects"
	case ResourceGitHubRequests:
		info.Label = "GitHub API Requests"
		info.Limit = p.Limits.GitHubRequests
		hint = "Upgrade to Pro for more GitHub API requests"
	default:
		return UsageInfo{}, fmt.Errorf("unknown resource: %s", resource)
	}

	if info.Limit == plan.Unlimited {
		info.Unlimited = true
		return info, nil
	}

	if info.Limit > 0 {
		info.Percent = min(current*100/info.Limit, 100)
	} else {
		info.Percent = 100
	}
	info.NearLimit = info.Percent >= NearLimitPercent
	info.AtLimit = current >= info.Limit

	if p.IsFree() && info.NearLimit {
		info.UpgradeHint = hint
	}

	return info, nil
}
