package billing

import (
	"context"
	"errors"

	"github.com/otiai10/projectdeck/internal/plan"
)

// User-facing checkout messages
const (
	MessagePaymentError  = "An error occurred while processing your payment."
	MessagePaymentFailed = "Payment failed. Please try again."
	MessageUpdateFailed  = "Payment successful, but failed to update subscription. Please contact support."
)

var (
	// ErrNoPaymentRequired is returned for checkouts of free-priced plans
	ErrNoPaymentRequired = errors.New("plan does not require payment")

	// ErrNoPrice is returned when a plan has no Stripe price configured
	ErrNoPrice = errors.New("plan has no Stripe price")
)

// CheckoutStatus is the state of a submitted checkout
type CheckoutStatus string

const (
	// CheckoutCompleted means the payment succeeded and the plan can be applied now
	CheckoutCompleted CheckoutStatus = "completed"

	// CheckoutPending means the user must finish payment at RedirectURL;
	// the plan is applied by the webhook
	CheckoutPending CheckoutStatus = "pending"
)

// CheckoutRequest is a request to pay for a plan
type CheckoutRequest struct {
	UserID string
	Email  string
	Plan   plan.Plan
}

// CheckoutResult is the outcome of a checkout
type CheckoutResult struct {
	Status      CheckoutStatus `json:"status"`
	PlanID      string         `json:"planId"`
	PaymentID   string         `json:"paymentId,omitempty"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
}

// Processor takes payment for a plan
type Processor interface {
	Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error)
}
