// Package auth provides authentication functionality using Firebase Auth
package auth

import (
	"context"
	"time"
)

// Claims represents the decoded ID token claims
type Claims struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	ProviderID    string `json:"provider_id,omitempty"`
}

// TokenVerifier verifies ID tokens
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Claims, error)
}

// Credentials are the inputs of a sign-up
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// Identity is a signed-in user together with their ID token
type Identity struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	IDToken     string    `json:"-"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// IdentityProvider creates accounts and signs users in and out
type IdentityProvider interface {
	// SignUp creates an account and signs it in
	SignUp(ctx context.Context, creds Credentials) (*Identity, error)

	// SignIn authenticates with email and password
	SignIn(ctx context.Context, email, password string) (*Identity, error)

	// SignOut invalidates the user's tokens
	SignOut(ctx context.Context, uid string) error
}
