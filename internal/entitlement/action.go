// Package entitlement decides whether a plan permits a gated action.
package entitlement

import "strings"

// Action is a gated capability
type Action int

const (
	// ActionUnknown is any action not recognized by the evaluator
	ActionUnknown Action = iota
	ActionCreateProject
	ActionExternalAPICall
	ActionViewAnalytics
	ActionExportData
	ActionTeamCollaboration

	numActions
)

var actionNames = [...]string{
	ActionUnknown:           "unknown",
	ActionCreateProject:     "create-project",
	ActionExternalAPICall:   "external-api-call",
	ActionViewAnalytics:     "view-analytics",
	ActionExportData:        "export-data",
	ActionTeamCollaboration: "team-collaboration",
}

var _ = [1]int{}[len(actionNames)-int(numActions)]

// legacy names used by older clients
var legacyActionNames = map[string]Action{
	"createproject":     ActionCreateProject,
	"githubrequest":     ActionExternalAPICall,
	"viewanalytics":     ActionViewAnalytics,
	"exportdata":        ActionExportData,
	"teamcollaboration": ActionTeamCollaboration,
}

// String returns the wire name of the action
func (a Action) String() string {
	if a < 0 || a >= numActions {
		return actionNames[ActionUnknown]
	}
	return actionNames[a]
}

// Actions returns every known action, excluding ActionUnknown
func Actions() []Action {
	result := make([]Action, 0, int(numActions)-1)
	for a := ActionUnknown + 1; a < numActions; a++ {
		result = append(result, a)
	}
	return result
}

// ParseAction maps a wire or legacy name to an Action.
// Unrecognized names yield ActionUnknown.
func ParseAction(name string) Action {
	name = strings.TrimSpace(name)
	for a := ActionUnknown + 1; a < numActions; a++ {
		if actionNames[a] == name {
			return a
		}
	}
	if a, ok := legacyActionNames[strings.ToLower(name)]; ok {
		return a
	}
	return ActionUnknown
}
