package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// SessionCookieName holds the ID token for browser navigation.
// Firebase Hosting only forwards a cookie with this name.
const SessionCookieName = "__session"

// TokenFromRequest extracts an ID token from, in order, the
// "Authorization: Bearer" header, the session cookie, and the "token"
// query parameter (used by websocket clients).
// It returns "" when none is present and ok=false for a malformed header.
func TokenFromRequest(r *http.Request) (token string, ok bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Check for "Bearer " prefix (case-sensitive)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", false
		}
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		return token, token != ""
	}

	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	if q := r.URL.Query().Get("token"); q != "" {
		return q, true
	}

	return "", true
}

// AuthMiddleware returns middleware that validates ID tokens.
// Returns 401 if token is missing or invalid.
// On success, adds Claims to context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromRequest(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			claims, err := verifier.VerifyIDToken(r.Context(), token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			// Add claims to context and continue
			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeJSONError writes a JSON error response with the given status code and message
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
