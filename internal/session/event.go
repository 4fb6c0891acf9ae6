package session

import (
	"time"
)

// EventType names a change pushed to a signed-in user
type EventType string

const (
	EventIdentity     EventType = "identity"
	EventSubscription EventType = "subscription"
	EventProjects     EventType = "projects"
	EventSignedOut    EventType = "signed-out"
)

// Event is one change notification
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Notifier receives change notifications for a user
type Notifier interface {
	Notify(userID string, ev Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(userID string, ev Event)

// Notify calls f
func (f NotifierFunc) Notify(userID string, ev Event) {
	f(userID, ev)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Event) {}

// ProjectsChanged is the payload of an EventProjects event
type ProjectsChanged struct {
	Count  int    `json:"count"`
	Banner string `json:"banner,omitempty"`
}
