package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/otiai10/projectdeck/internal/plan"
)

// Webhook event type constants
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// ErrMissingMetadata is returned for events that do not name a user
var ErrMissingMetadata = errors.New("event has no user metadata")

// PlanChange is the subscription change a webhook event asks for
type PlanChange struct {
	UserID string
	PlanID string
	Reason string
}

// SubscriptionInfo contains parsed subscription information from webhook events
type SubscriptionInfo struct {
	SubscriptionID      string
	CustomerID          string
	UserID              string
	PlanID              string
	Status              string
	PeriodEnd           time.Time
	CanceledAtPeriodEnd bool
}

// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event
func VerifyWebhookSignature(payload []byte, signature, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, secret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	return event, nil
}

// PlanChangeFromEvent returns the plan change event asks for, or nil for
// events that do not change a plan
func PlanChangeFromEvent(event stripe.Event) (*PlanChange, error) {
	switch event.Type {
	case EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return ParseCheckoutSessionCompleted(&session)

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		info := ParseSubscriptionUpdate(&sub)
		if event.Type == EventSubscriptionDeleted || revoked(info.Status) {
			if info.UserID == "" {
				return nil, ErrMissingMetadata
			}
			return &PlanChange{UserID: info.UserID, PlanID: plan.FreeID, Reason: string(event.Type)}, nil
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// ParseCheckoutSessionCompleted extracts the user and plan of a completed checkout
func ParseCheckoutSessionCompleted(session *stripe.CheckoutSession) (*PlanChange, error) {
	userID := session.Metadata[MetadataUserID]
	if userID == "" {
		userID = session.ClientReferenceID
	}
	planID := session.Metadata[MetadataPlanID]
	if userID == "" || planID == "" {
		return nil, ErrMissingMetadata
	}
	return &PlanChange{UserID: userID, PlanID: planID, Reason: EventCheckoutSessionCompleted}, nil
}

// ParseSubscriptionUpdate extracts subscription details from subscription update/delete events
func ParseSubscriptionUpdate(sub *stripe.Subscription) SubscriptionInfo {
	info := SubscriptionInfo{
		SubscriptionID:      sub.ID,
		UserID:              sub.Metadata[MetadataUserID],
		PlanID:              sub.Metadata[MetadataPlanID],
		Status:              mapSubscriptionStatus(sub.Status),
		PeriodEnd:           time.Unix(sub.CurrentPeriodEnd, 0),
		CanceledAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if sub.Customer != nil {
		info.CustomerID = sub.Customer.ID
	}

	return info
}

// revoked reports whether a subscription in status no longer grants the paid plan
func revoked(status string) bool {
	switch status {
	case "canceled", "unpaid", "incomplete_expired", "paused":
		return true
	default:
		return false
	}
}

// mapSubscriptionStatus maps Stripe subscription status to our internal status string
func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return "active"
	case stripe.SubscriptionStatusCanceled:
		return "canceled"
	case stripe.SubscriptionStatusPastDue:
		return "past_due"
	case stripe.SubscriptionStatusTrialing:
		return "trialing"
	case stripe.SubscriptionStatusIncomplete:
		return "incomplete"
	case stripe.SubscriptionStatusIncompleteExpired:
		return "incomplete_expired"
	case stripe.SubscriptionStatusUnpaid:
		return "unpaid"
	case stripe.SubscriptionStatusPaused:
		return "paused"
	default:
		return string(status)
	}
}
