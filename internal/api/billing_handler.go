package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/billing"
	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/subscription"
)

// maxWebhookBytes caps Stripe webhook payloads
const maxWebhookBytes = 65536

// PlanRequest names the plan to switch to or pay for
type PlanRequest struct {
	PlanID string `json:"planId"`
}

// SubscriptionResponse represents the current subscription of the user
type SubscriptionResponse struct {
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
	Plan         plan.Plan                  `json:"plan"`
	Active       bool                       `json:"active"`
}

// CheckoutResponse is the outcome of POST /api/checkout
type CheckoutResponse struct {
	billing.CheckoutResult
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
}

// GateResponse is the feature gate decision for one action
type GateResponse struct {
	Action string `json:"action"`
	Usage  int    `json:"usage"`
	entitlement.Decision
}

// GetSubscription handles GET /api/subscription
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	writeJSON(w, subscriptionResponse(s.State()), http.StatusOK)
}

// UpdateSubscription handles PUT /api/subscription.
// Only plans without a price can be selected directly; paid plans go
// through checkout.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, ok := h.catalog.Get(req.PlanID)
	if !ok {
		writeError(w, "unknown plan", http.StatusBadRequest)
		return
	}
	if p.IsPaid() {
		writeError(w, "plan requires checkout", http.StatusPaymentRequired)
		return
	}

	s := h.session(r)
	if _, err := s.ChangePlan(r.Context(), p.ID); err != nil {
		log.Printf("Failed to change plan for %s: %v", s.UserID(), err)
		if errors.Is(err, subscription.ErrNotLoaded) {
			writeError(w, "subscription is unavailable, please try again", http.StatusServiceUnavailable)
			return
		}
		writeError(w, "Failed to update subscription", http.StatusInternalServerError)
		return
	}

	writeJSON(w, subscriptionResponse(s.State()), http.StatusOK)
}

// Checkout handles POST /api/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, ok := h.catalog.Get(req.PlanID)
	if !ok {
		writeError(w, "unknown plan", http.StatusBadRequest)
		return
	}
	if !p.IsPaid() {
		writeError(w, billing.ErrNoPaymentRequired.Error(), http.StatusBadRequest)
		return
	}

	claims := auth.MustGetClaims(r.Context())
	s := h.session(r)

	result, err := h.payments.Checkout(r.Context(), billing.CheckoutRequest{
		UserID: claims.UID,
		Email:  claims.Email,
		Plan:   p,
	})
	if err != nil {
		h.metrics.ObserveCheckout(p.ID, "error")
		log.Printf("Checkout failed for %s (plan: %s): %v", claims.UID, p.ID, err)
		writeError(w, billing.MessagePaymentError, http.StatusBadGateway)
		return
	}
	h.metrics.ObserveCheckout(p.ID, string(result.Status))

	resp := CheckoutResponse{CheckoutResult: result}
	if result.Status == billing.CheckoutCompleted {
		sub, err := s.ChangePlan(r.Context(), result.PlanID)
		if err != nil {
			log.Printf("Payment %s succeeded but plan update failed for %s: %v", result.PaymentID, claims.UID, err)
			writeError(w, billing.MessageUpdateFailed, http.StatusInternalServerError)
			return
		}
		resp.Subscription = &sub
	}

	writeJSON(w, resp, http.StatusOK)
}

// Gate handles GET /api/gate?action=&count=.
// Without count the usage is taken from the session.
func (h *Handler) Gate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("action")
	if name == "" {
		writeError(w, "action is required", http.StatusBadRequest)
		return
	}
	action := entitlement.ParseAction(name)
	s := h.session(r)

	var usage int
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, "count must be a non-negative integer", http.StatusBadRequest)
			return
		}
		usage = n
	} else {
		usage = currentUsage(s.Usage(), action)
	}

	d := s.Decide(action, usage)
	h.metrics.ObserveGate(action.String(), string(d.Outcome))
	writeJSON(w, GateResponse{Action: action.String(), Usage: usage, Decision: d}, http.StatusOK)
}

// StripeWebhook handles POST /api/webhooks/stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		writeError(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	event, err := billing.VerifyWebhookSignature(body, signature, h.webhookSecret)
	if err != nil {
		writeError(w, "invalid webhook signature", http.StatusBadRequest)
		return
	}

	change, err := billing.PlanChangeFromEvent(event)
	if err != nil {
		log.Printf("Ignoring Stripe event %s (%s): %v", event.ID, event.Type, err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if change == nil {
		writeJSON(w, map[string]bool{"received": true}, http.StatusOK)
		return
	}

	// Stripe retries on non-2xx, so store failures surface as 500
	if _, err := h.sessions.ApplyPlan(r.Context(), change.UserID, change.PlanID); err != nil {
		log.Printf("Failed to apply plan %s to %s from %s: %v", change.PlanID, change.UserID, change.Reason, err)
		if errors.Is(err, subscription.ErrUnknownPlan) {
			writeError(w, "unknown plan", http.StatusBadRequest)
			return
		}
		writeError(w, "failed to apply plan change", http.StatusInternalServerError)
		return
	}

	log.Printf("Applied plan %s to %s from %s", change.PlanID, change.UserID, change.Reason)
	writeJSON(w, map[string]bool{"received": true}, http.StatusOK)
}

func subscriptionResponse(state *subscription.State) SubscriptionResponse {
	resp := SubscriptionResponse{
		Plan:   state.CurrentPlan(),
		Active: state.IsActive(),
	}
	if sub, ok := state.Subscription(); ok {
		resp.Subscription = &sub
	}
	return resp
}

// currentUsage picks the counter the gate compares for action
func currentUsage(usage []entitlement.UsageInfo, action entitlement.Action) int {
	var resource string
	switch action {
	case entitlement.ActionCreateProject:
		resource = entitlement.ResourceProjects
	case entitlement.ActionExternalAPICall:
		resource = entitlement.ResourceGitHubRequests
	default:
		return 0
	}
	for _, u := range usage {
		if u.Resource == resource {
			return u.Current
		}
	}
	return 0
}
