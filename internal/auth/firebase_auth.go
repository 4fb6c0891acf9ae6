package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseAuth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// adminClient is the subset of the Admin SDK used here.
// Both firebaseAuth.Client and firebaseAuth.TenantClient implement this.
type adminClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*firebaseAuth.Token, error)
	CreateUser(ctx context.Context, user *firebaseAuth.UserToCreate) (*firebaseAuth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseConfig holds configuration for the Firebase identity provider
type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
	TenantID        string // Optional: for multi-tenant Identity Platform
	APIKey          string // Web API key, required for password sign-in
	EndpointURL     string // Optional: identitytoolkit base URL override (emulator)
}

// Firebase implements TokenVerifier and IdentityProvider with the
// Firebase Admin SDK, using the Identity Toolkit REST API for
// password sign-in which the Admin SDK does not offer.
type Firebase struct {
	admin    adminClient
	signer   *passwordSigner
	tenantID string
}

var (
	_ TokenVerifier    = (*Firebase)(nil)
	_ IdentityProvider = (*Firebase)(nil)
)

// NewFirebase creates a Firebase identity provider
func NewFirebase(ctx context.Context, cfg FirebaseConfig) (*Firebase, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID: cfg.ProjectID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	var admin adminClient = authClient
	if cfg.TenantID != "" {
		// Multi-tenant mode: use tenant-specific auth client
		tenantClient, err := authClient.TenantManager.AuthForTenant(cfg.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to get tenant auth client for %s: %w", cfg.TenantID, err)
		}
		admin = tenantClient
	}

	return &Firebase{
		admin:    admin,
		signer:   newPasswordSigner(cfg.APIKey, cfg.EndpointURL, cfg.TenantID, http.DefaultClient),
		tenantID: cfg.TenantID,
	}, nil
}

// VerifyIDToken verifies a Firebase ID token and returns the decoded claims.
// Tokens issued before SignOut revoked the user's sessions are rejected.
func (f *Firebase) VerifyIDToken(ctx context.Context, idToken string) (*Claims, error) {
	token, err := f.admin.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if firebaseAuth.IsIDTokenRevoked(err) {
			return nil, newError(CodeInvalidToken, "", err)
		}
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	return tokenToClaims(token), nil
}

// SignUp creates a Firebase user and signs it in
func (f *Firebase) SignUp(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := validateCredentials(creds.Email, creds.Password); err != nil {
		return nil, err
	}

	params := (&firebaseAuth.UserToCreate{}).
		Email(creds.Email).
		Password(creds.Password)
	if creds.DisplayName != "" {
		params = params.DisplayName(creds.DisplayName)
	}

	if _, err := f.admin.CreateUser(ctx, params); err != nil {
		if firebaseAuth.IsEmailAlreadyExists(err) {
			return nil, newError(CodeEmailAlreadyInUse, "", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return f.SignIn(ctx, creds.Email, creds.Password)
}

// SignIn authenticates with email and password
func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	return f.signer.signIn(ctx, email, password)
}

// SignOut revokes the user's refresh tokens
func (f *Firebase) SignOut(ctx context.Context, uid string) error {
	if err := f.admin.RevokeRefreshTokens(ctx, uid); err != nil {
		if firebaseAuth.IsUserNotFound(err) {
			return newError(CodeUserNotFound, "", err)
		}
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func tokenToClaims(token *firebaseAuth.Token) *Claims {
	claims := &Claims{
		UID:           token.UID,
		Email:         getStringClaim(token.Claims, "email"),
		EmailVerified: getBoolClaim(token.Claims, "email_verified"),
		Name:          getStringClaim(token.Claims, "name"),
		Picture:       getStringClaim(token.Claims, "picture"),
	}

	// Set provider ID from Firebase token
	if token.Firebase.SignInProvider != "" {
		claims.ProviderID = token.Firebase.SignInProvider
	}

	return claims
}

// validateCredentials applies the checks the client SDK performs before a request
func validateCredentials(email, password string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\n") {
		return newError(CodeInvalidEmail, "", nil)
	}
	if len(password) < 6 {
		return newError(CodeWeakPassword, "", nil)
	}
	return nil
}

// getStringClaim safely extracts a string claim from the claims map
func getStringClaim(claims map[string]any, key string) string {
	val, ok := claims[key]
	if !ok {
		return ""
	}
	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// getBoolClaim safely extracts a boolean claim from the claims map
func getBoolClaim(claims map[string]any, key string) bool {
	val, ok := claims[key]
	if !ok {
		return false
	}
	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}
