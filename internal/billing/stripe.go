package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
)

// Metadata keys attached to checkout sessions and subscriptions
const (
	MetadataUserID = "user_id"
	MetadataPlanID = "plan_id"
)

// StripeProcessor sends the user to a Stripe Checkout page.
// The plan is applied when the checkout.session.completed webhook arrives.
type StripeProcessor struct {
	secretKey  string
	successURL string
	cancelURL  string

	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

var _ Processor = (*StripeProcessor)(nil)

// NewStripeProcessor creates a StripeProcessor
//
// Parameters:
//   - secretKey: Stripe API secret key (sk_test_xxx or sk_live_xxx)
//   - successURL: URL to redirect to after successful checkout
//   - cancelURL: URL to redirect to if checkout is canceled
func NewStripeProcessor(secretKey, successURL, cancelURL string) *StripeProcessor {
	// Set the global API key for the stripe-go library
	stripe.Key = secretKey

	return &StripeProcessor{
		secretKey:  secretKey,
		successURL: successURL,
		cancelURL:  cancelURL,
		newSession: checkoutsession.New,
	}
}

// Checkout creates a Stripe Checkout session for the plan's price
func (p *StripeProcessor) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if !req.Plan.IsPaid() {
		return CheckoutResult{}, ErrNoPaymentRequired
	}
	if req.Plan.StripePriceID == "" {
		return CheckoutResult{}, fmt.Errorf("%w: %s", ErrNoPrice, req.Plan.ID)
	}

	params := buildCheckoutSessionParams(req, p.successURL, p.cancelURL)
	params.Context = ctx

	session, err := p.newSession(params)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return CheckoutResult{
		Status:      CheckoutPending,
		PlanID:      req.Plan.ID,
		PaymentID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// buildCheckoutSessionParams creates Stripe Checkout session parameters.
// The user and plan travel as metadata so the webhook can apply the plan.
func buildCheckoutSessionParams(req CheckoutRequest, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		MetadataUserID: req.UserID,
		MetadataPlanID: req.Plan.ID,
	}

	params := &stripe.CheckoutSessionParams{
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.Plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	return params
}
