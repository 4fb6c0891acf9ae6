package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// localTokenTTL matches the lifetime of a Firebase ID token
	localTokenTTL = time.Hour

	// localMaxFailures consecutive wrong passwords lock an account for localLockout
	localMaxFailures = 5
	localLockout     = time.Minute
)

type localUser struct {
	uid          string
	email        string
	displayName  string
	passwordHash []byte
	disabled     bool
	failures     int
	lockedUntil  time.Time
}

type localToken struct {
	claims    Claims
	expiresAt time.Time
}

// LocalIdentityProvider keeps accounts in memory with bcrypt password hashes.
// It issues opaque random tokens and verifies them, so it can replace
// Firebase in --test-mode and local development.
type LocalIdentityProvider struct {
	mu      sync.Mutex
	users   map[string]*localUser // by lower-cased email
	tokens  map[string]localToken
	now     func() time.Time
	bcryptN int
}

var (
	_ TokenVerifier    = (*LocalIdentityProvider)(nil)
	_ IdentityProvider = (*LocalIdentityProvider)(nil)
)

// NewLocalIdentityProvider creates an empty provider
func NewLocalIdentityProvider() *LocalIdentityProvider {
	return &LocalIdentityProvider{
		users:   make(map[string]*localUser),
		tokens:  make(map[string]localToken),
		now:     time.Now,
		bcryptN: bcrypt.DefaultCost,
	}
}

// SignUp creates an account and signs it in
func (p *LocalIdentityProvider) SignUp(ctx context.Context, creds Credentials) (*Identity, error) {
	if err := validateCredentials(creds.Email, creds.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.bcryptN)
	if err != nil {
		return nil, newError(CodeWeakPassword, err.Error(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(creds.Email)
	if _, exists := p.users[key]; exists {
		return nil, newError(CodeEmailAlreadyInUse, "", nil)
	}

	u := &localUser{
		uid:          uuid.NewString(),
		email:        creds.Email,
		displayName:  creds.DisplayName,
		passwordHash: hash,
	}
	p.users[key] = u

	return p.issue(u), nil
}

// SignIn checks the password and issues a token
func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		if Code(err) == CodeWeakPassword {
			return nil, newError(CodeWrongPassword, "", nil)
		}
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[strings.ToLower(email)]
	if !ok {
		return nil, newError(CodeUserNotFound, "", nil)
	}
	if u.disabled {
		return nil, newError(CodeUserDisabled, "", nil)
	}

	now := p.now()
	if now.Before(u.lockedUntil) {
		return nil, newError(CodeTooManyRequests, "", nil)
	}

	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		u.failures++
		if u.failures >= localMaxFailures {
			u.failures = 0
			u.lockedUntil = now.Add(localLockout)
		}
		return nil, newError(CodeWrongPassword, "", err)
	}

	u.failures = 0
	return p.issue(u), nil
}

// SignOut revokes every token of uid
func (p *LocalIdentityProvider) SignOut(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for token, t := range p.tokens {
		if t.claims.UID == uid {
			delete(p.tokens, token)
		}
	}
	return nil
}

// VerifyIDToken resolves a token issued by this provider
func (p *LocalIdentityProvider) VerifyIDToken(ctx context.Context, idToken string) (*Claims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tokens[idToken]
	if !ok {
		return nil, newError(CodeInvalidToken, "unknown token", nil)
	}
	if !p.now().Before(t.expiresAt) {
		delete(p.tokens, idToken)
		return nil, newError(CodeInvalidToken, "token expired", nil)
	}

	claims := t.claims
	return &claims, nil
}

// Disable blocks sign-in for email
func (p *LocalIdentityProvider) Disable(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u, ok := p.users[strings.ToLower(email)]; ok {
		u.disabled = true
	}
}

// issue creates a token for u; callers hold p.mu
func (p *LocalIdentityProvider) issue(u *localUser) *Identity {
	token := uuid.NewString()
	expiresAt := p.now().Add(localTokenTTL)

	p.tokens[token] = localToken{
		claims: Claims{
			UID:        u.uid,
			Email:      u.email,
			Name:       u.displayName,
			ProviderID: "password",
		},
		expiresAt: expiresAt,
	}

	return &Identity{
		UID:         u.uid,
		Email:       u.email,
		DisplayName: u.displayName,
		IDToken:     token,
		ExpiresAt:   expiresAt,
	}
}
