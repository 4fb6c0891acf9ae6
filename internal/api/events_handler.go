package api

import (
	"net/http"

	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/session"
)

// IdentityPayload is the first event of every change feed
type IdentityPayload struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PlanID      string `json:"planId"`
}

// Events handles GET /api/events. The connection receives the current
// identity first, then subscription, project and sign-out events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())
	s := h.session(r)

	initial := session.Event{
		Type: session.EventIdentity,
		Data: IdentityPayload{
			UID:         claims.UID,
			Email:       claims.Email,
			DisplayName: claims.Name,
			PlanID:      s.Plan().ID,
		},
		At: h.now(),
	}
	h.hub.ServeWS(w, r, claims.UID, initial)
}
