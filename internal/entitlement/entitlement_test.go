package entitlement

import (
	"errors"
	"testing"

	"github.com/otiai10/projectdeck/internal/plan"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name string
		want Action
	}{
		{"create-project", ActionCreateProject},
		{"external-api-call", ActionExternalAPICall},
		{"view-analytics", ActionViewAnalytics},
		{"export-data", ActionExportData},
		{"team-collaboration", ActionTeamCollaboration},
		{"createProject", ActionCreateProject},
		{"githubRequest", ActionExternalAPICall},
		{"viewAnalytics", ActionViewAnalytics},
		{"exportData", ActionExportData},
		{"teamCollaboration", ActionTeamCollaboration},
		{"deleteEverything", ActionUnknown},
		{"", ActionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAction(tt.name); got != tt.want {
				t.Errorf("ParseAction(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestAction_StringRoundTrip(t *testing.T) {
	for _, a := range Actions() {
		if got := ParseAction(a.String()); got != a {
			t.Errorf("ParseAction(%q) = %v, want %v", a.String(), got, a)
		}
	}
	if Action(99).String() != "unknown" {
		t.Errorf("out of range action String() = %q, want unknown", Action(99).String())
	}
}

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name   string
		plan   plan.Plan
		action Action
		usage  int
		want   bool
	}{
		{"free create below limit", plan.Free, ActionCreateProject, 2, true},
		{"free create at limit", plan.Free, ActionCreateProject, 3, false},
		{"free create above limit", plan.Free, ActionCreateProject, 4, false},
		{"pro create unlimited", plan.Pro, ActionCreateProject, 10000, true},
		{"enterprise create unlimited", plan.Enterprise, ActionCreateProject, 50, true},
		{"free api below limit", plan.Free, ActionExternalAPICall, 9, true},
		{"free api at limit", plan.Free, ActionExternalAPICall, 10, false},
		{"pro api at limit", plan.Pro, ActionExternalAPICall, 100, false},
		{"enterprise api below limit", plan.Enterprise, ActionExternalAPICall, 999, true},
		{"free view analytics", plan.Free, ActionViewAnalytics, 0, true},
		{"free export", plan.Free, ActionExportData, 0, false},
		{"pro export", plan.Pro, ActionExportData, 0, true},
		{"enterprise export", plan.Enterprise, ActionExportData, 0, true},
		{"free team", plan.Free, ActionTeamCollaboration, 0, false},
		{"pro team", plan.Pro, ActionTeamCollaboration, 0, true},
		{"enterprise team", plan.Enterprise, ActionTeamCollaboration, 0, true},
		{"unknown action fails open", plan.Free, ActionUnknown, 1000, true},
		{"out of range action fails open", plan.Free, Action(42), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanPerform(tt.plan, tt.action, tt.usage); got != tt.want {
				t.Errorf("CanPerform(%s, %v, %d) = %v, want %v", tt.plan.ID, tt.action, tt.usage, got, tt.want)
			}
		})
	}
}

func TestCanPerform_ZeroLimitAllowsNothing(t *testing.T) {
	none := plan.Plan{ID: "locked", Name: "Locked", Limits: plan.Limits{Projects: 0, GitHubRequests: 0}}

	if CanPerform(none, ActionCreateProject, 0) {
		t.Error("a project limit of 0 must deny creation")
	}
	if CanPerform(none, ActionExternalAPICall, 0) {
		t.Error("a request limit of 0 must deny calls")
	}
}

func TestRestrictionTableIsExhaustive(t *testing.T) {
	for a := ActionUnknown; a < numActions; a++ {
		r := RestrictionFor(plan.Free, a)
		if r.Title == "" || r.Message == "" || r.Suggestion == "" {
			t.Errorf("action %v has an incomplete restriction: %+v", a, r)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		plan       plan.Plan
		action     Action
		usage      int
		wantOut    Outcome
		title      string
		message    string
		suggestion string
	}{
		{
			name:    "allowed has no restriction",
			plan:    plan.Free,
			action:  ActionCreateProject,
			usage:   1,
			wantOut: Allowed,
		},
		{
			name:       "project limit",
			plan:       plan.Free,
			action:     ActionCreateProject,
			usage:      3,
			wantOut:    Restricted,
			title:      "Project Limit Reached",
			message:    "You've reached the maximum of 3 projects on the Free plan.",
			suggestion: "Upgrade to Pro for unlimited projects.",
		},
		{
			name:       "api limit",
			plan:       plan.Pro,
			action:     ActionExternalAPICall,
			usage:      100,
			wantOut:    Restricted,
			title:      "API Limit Reached",
			message:    "You've used all 100 GitHub API requests this month.",
			suggestion: "Upgrade for higher API limits.",
		},
		{
			name:       "export",
			plan:       plan.Free,
			action:     ActionExportData,
			wantOut:    Restricted,
			title:      "Premium Feature",
			message:    "Data export is available on Pro and Enterprise plans.",
			suggestion: "Upgrade to access advanced export features.",
		},
		{
			name:       "team",
			plan:       plan.Free,
			action:     ActionTeamCollaboration,
			wantOut:    Restricted,
			title:      "Team Feature",
			message:    "Team collaboration is available on Pro and Enterprise plans.",
			suggestion: "Upgrade to collaborate with your team.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.plan, tt.action, tt.usage)
			if d.Outcome != tt.wantOut {
				t.Fatalf("Outcome = %q, want %q", d.Outcome, tt.wantOut)
			}
			if tt.wantOut == Allowed {
				if d.Restriction != nil {
					t.Errorf("Restriction = %+v, want nil", d.Restriction)
				}
				if d.Err() != nil {
					t.Errorf("Err() = %v, want nil", d.Err())
				}
				return
			}
			if d.Restriction.Title != tt.title {
				t.Errorf("Title = %q, want %q", d.Restriction.Title, tt.title)
			}
			if d.Restriction.Message != tt.message {
				t.Errorf("Message = %q, want %q", d.Restriction.Message, tt.message)
			}
			if d.Restriction.Suggestion != tt.suggestion {
				t.Errorf("Suggestion = %q, want %q", d.Restriction.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestRestrictionFor_Fallback(t *testing.T) {
	r := RestrictionFor(plan.Free, ActionViewAnalytics)
	if r.Title != "Feature Restricted" {
		t.Errorf("Title = %q, want %q", r.Title, "Feature Restricted")
	}
	if r.Message != "This feature is not available on the Free plan." {
		t.Errorf("Message = %q", r.Message)
	}
	if r.Suggestion != "Consider upgrading for access to more features." {
		t.Errorf("Suggestion = %q", r.Suggestion)
	}

	if got := RestrictionFor(plan.Pro, Action(-3)); got.Title != "Feature Restricted" {
		t.Errorf("out of range Title = %q", got.Title)
	}
}

func TestDecision_Err(t *testing.T) {
	d := Decide(plan.Free, ActionExportData, 0)

	err := d.Err()
	if !errors.Is(err, ErrRestricted) {
		t.Fatalf("expected ErrRestricted, got %v", err)
	}

	var re *RestrictedError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RestrictedError, got %T", err)
	}
	if re.Action != ActionExportData {
		t.Errorf("Action = %v, want %v", re.Action, ActionExportData)
	}
	if re.Restriction.Title != "Premium Feature" {
		t.Errorf("Title = %q", re.Restriction.Title)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name      string
		plan      plan.Plan
		resource  string
		current   int
		percent   int
		near      bool
		atLimit   bool
		unlimited bool
		hint      bool
	}{
		{"free projects low", plan.Free, ResourceProjects, 1, 33, false, false, false, false},
		{"free projects near", plan.Free, ResourceProjects, 3, 100, true, true, false, true},
		{"free requests at 80", plan.Free, ResourceGitHubRequests, 8, 80, true, false, false, true},
		{"pro projects unlimited", plan.Pro, ResourceProjects, 500, 0, false, false, true, false},
		{"pro requests near has no hint", plan.Pro, ResourceGitHubRequests, 95, 95, true, false, false, false},
		{"over limit caps percent", plan.Free, ResourceGitHubRequests, 25, 100, true, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Usage(tt.plan, tt.resource, tt.current)
			if err != nil {
				t.Fatalf("Usage() error = %v", err)
			}
			if info.Unlimited != tt.unlimited {
				t.Errorf("Unlimited = %v, want %v", info.Unlimited, tt.unlimited)
			}
			if info.Percent != tt.percent {
				t.Errorf("Percent = %d, want %d", info.Percent, tt.percent)
			}
			if info.NearLimit != tt.near {
				t.Errorf("NearLimit = %v, want %v", info.NearLimit, tt.near)
			}
			if info.AtLimit != tt.atLimit {
				t.Errorf("AtLimit = %v, want %v", info.AtLimit, tt.atLimit)
			}
			if (info.UpgradeHint != "") != tt.hint {
				t.Errorf("UpgradeHint = %q, want present=%v", info.UpgradeHint, tt.hint)
			}
		})
	}

	if _, err := Usage(plan.Free, "storage", 1); err == nil {
		t.Error("expected error for unknown resource")
	}
}
