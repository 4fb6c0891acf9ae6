package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/billing"
	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/github"
	"github.com/otiai10/projectdeck/internal/metrics"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/realtime"
	"github.com/otiai10/projectdeck/internal/session"
	"github.com/otiai10/projectdeck/internal/user"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RestrictionResponse is the body of a 403 from the feature gate
type RestrictionResponse struct {
	Error       string                  `json:"error"`
	Restriction entitlement.Restriction `json:"restriction"`
}

// Handler contains the HTTP handlers for the API
type Handler struct {
	sessions      *session.Manager
	identity      auth.IdentityProvider
	users         user.Repository
	catalog       *plan.Catalog
	github        *github.Client
	payments      billing.Processor
	hub           *realtime.Hub
	metrics       *metrics.Metrics
	webhookSecret string
	secureCookies bool
	now           func() time.Time
}

// NewHandler creates a Handler from the router dependencies
func NewHandler(cfg RouterConfig) *Handler {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = cfg.Sessions.Catalog()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Handler{
		sessions:      cfg.Sessions,
		identity:      cfg.Identity,
		users:         cfg.Users,
		catalog:       catalog,
		github:        cfg.GitHub,
		payments:      cfg.Payments,
		hub:           cfg.Hub,
		metrics:       cfg.Metrics,
		webhookSecret: cfg.WebhookSecret,
		secureCookies: cfg.Security.SecureCookies,
		now:           now,
	}
}

// ListPlans handles GET /api/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"plans": h.catalog.Plans()}, http.StatusOK)
}

// session returns the live session of the authenticated user, opening
// one when the server has none (first request after a restart)
func (h *Handler) session(r *http.Request) *session.Session {
	claims := auth.MustGetClaims(r.Context())
	return h.sessions.Open(r.Context(), claims.UID)
}

// deny writes the 403 of a restricted decision. Denials are expected
// outcomes and are not logged as errors.
func (h *Handler) deny(w http.ResponseWriter, d entitlement.Decision) {
	h.metrics.ObserveGate(d.Action.String(), string(d.Outcome))
	writeJSON(w, RestrictionResponse{
		Error:       d.Restriction.Message,
		Restriction: *d.Restriction,
	}, http.StatusForbidden)
}

// writeRestricted writes err as a 403 when it is a gate denial and
// reports whether it did
func (h *Handler) writeRestricted(w http.ResponseWriter, err error) bool {
	var re *entitlement.RestrictedError
	if !errors.As(err, &re) {
		return false
	}
	restriction := re.Restriction
	h.deny(w, entitlement.Decision{
		Action:      re.Action,
		Outcome:     entitlement.Restricted,
		Restriction: &restriction,
	})
	return true
}

// allow runs d through metrics and writes the denial if any
func (h *Handler) allow(w http.ResponseWriter, d entitlement.Decision) bool {
	if !d.IsAllowed() {
		h.deny(w, d)
		return false
	}
	h.metrics.ObserveGate(d.Action.String(), string(d.Outcome))
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func extractIDFromPath(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Already wrote headers, can only log
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
