package api

import (
	"log"
	"net/http"
	"time"

	"github.com/otiai10/projectdeck/internal/auth"
	"github.com/otiai10/projectdeck/internal/entitlement"
	"github.com/otiai10/projectdeck/internal/plan"
	"github.com/otiai10/projectdeck/internal/subscription"
	"github.com/otiai10/projectdeck/internal/user"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful sign-up or sign-in.
// The token is also set as the session cookie.
type AuthResponse struct {
	User      *auth.Identity `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Plan      plan.Plan      `json:"plan"`
}

// MeResponse represents the signed-in user's dashboard header data
type MeResponse struct {
	UID          string                     `json:"uid"`
	Email        string                     `json:"email"`
	DisplayName  string                     `json:"displayName"`
	CreatedAt    *time.Time                 `json:"createdAt,omitempty"`
	LastLoginAt  *time.Time                 `json:"lastLoginAt,omitempty"`
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
	Plan         plan.Plan                  `json:"plan"`
	Active       bool                       `json:"active"`
	Usage        []entitlement.UsageInfo    `json:"usage"`
}

// SignUp handles POST /api/auth/signup
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req auth.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.identity.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, auth.SignUpMessage(err), authErrorStatus(err))
		return
	}

	h.completeSignIn(w, r, identity, http.StatusCreated)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, auth.Message(err), authErrorStatus(err))
		return
	}

	h.completeSignIn(w, r, identity, http.StatusOK)
}

// completeSignIn records the login, opens the session and sets the cookie
func (h *Handler) completeSignIn(w http.ResponseWriter, r *http.Request, identity *auth.Identity, status int) {
	profile := user.User{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
	if _, err := user.RecordLogin(r.Context(), h.users, profile, h.now()); err != nil {
		log.Printf("Failed to record login for %s: %v", identity.UID, err)
	}

	s := h.sessions.Open(r.Context(), identity.UID)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    identity.IDToken,
		Path:     "/",
		Expires:  identity.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, AuthResponse{
		User:      identity,
		Token:     identity.IDToken,
		ExpiresAt: identity.ExpiresAt,
		Plan:      s.Plan(),
	}, status)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())

	if err := h.identity.SignOut(r.Context(), claims.UID); err != nil {
		log.Printf("Failed to revoke tokens for %s: %v", claims.UID, err)
	}
	h.sessions.Close(claims.UID)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, map[string]string{"status": "signed out"}, http.StatusOK)
}

// Me handles GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustGetClaims(r.Context())
	s := h.session(r)

	resp := MeResponse{
		UID:         claims.UID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Plan:        s.Plan(),
		Active:      s.State().IsActive(),
		Usage:       s.Usage(),
	}

	u, err := h.users.GetByUID(r.Context(), claims.UID)
	if err != nil {
		log.Printf("Failed to get user %s: %v", claims.UID, err)
	}
	if u != nil {
		resp.Email = u.Email
		resp.DisplayName = u.Name()
		resp.CreatedAt = &u.CreatedAt
		resp.LastLoginAt = &u.LastLoginAt
	}

	if sub, ok := s.State().Subscription(); ok {
		resp.Subscription = &sub
	}

	writeJSON(w, resp, http.StatusOK)
}

// authErrorStatus maps identity provider failures to HTTP statuses
func authErrorStatus(err error) int {
	switch auth.Code(err) {
	case auth.CodeInvalidEmail, auth.CodeWeakPassword:
		return http.StatusBadRequest
	case auth.CodeEmailAlreadyInUse:
		return http.StatusConflict
	case auth.CodeUserNotFound, auth.CodeWrongPassword:
		return http.StatusUnauthorized
	case auth.CodeUserDisabled, auth.CodeOperationNotAllowed:
		return http.StatusForbidden
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeNetworkRequestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
