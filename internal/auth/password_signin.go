package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultIdentityToolkitURL is the REST endpoint for password sign-in
const DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// passwordSigner calls accounts:signInWithPassword
type passwordSigner struct {
	apiKey   string
	baseURL  string
	tenantID string
	client   *http.Client
	now      func() time.Time
}

func newPasswordSigner(apiKey, baseURL, tenantID string, client *http.Client) *passwordSigner {
	if baseURL == "" {
		baseURL = DefaultIdentityToolkitURL
	}
	return &passwordSigner{
		apiKey:   apiKey,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		tenantID: tenantID,
		client:   client,
		now:      time.Now,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
	TenantID          string `json:"tenantId,omitempty"`
}

type signInResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type restErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *passwordSigner) signIn(ctx context.Context, email, password string) (*Identity, error) {
	if s.apiKey == "" {
		return nil, newError(CodeOperationNotAllowed, "API key is not configured", nil)
	}

	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
		TenantID:          s.tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts:signInWithPassword?key=%s", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, newError(CodeNetworkRequestFailed, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var restErr restErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&restErr); err != nil {
			return nil, fmt.Errorf("sign-in failed with status %d", resp.StatusCode)
		}
		return nil, restErrorToError(restErr.Error.Message)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(out.ExpiresIn); err == nil {
		ttl = time.Duration(secs) * time.Second
	}

	return &Identity{
		UID:         out.LocalID,
		Email:       out.Email,
		DisplayName: out.DisplayName,
		IDToken:     out.IDToken,
		ExpiresAt:   s.now().Add(ttl),
	}, nil
}

// restErrorToError maps Identity Toolkit error messages to client SDK codes.
// Messages look like "TOO_MANY_ATTEMPTS_TRY_LATER : detail".
func restErrorToError(msg string) error {
	reason, detail, _ := strings.Cut(msg, " : ")
	reason = strings.TrimSpace(reason)

	var code string
	switch reason {
	case "INVALID_EMAIL":
		code = CodeInvalidEmail
	case "USER_DISABLED":
		code = CodeUserDisabled
	case "EMAIL_NOT_FOUND":
		code = CodeUserNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		code = CodeWrongPassword
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		code = CodeTooManyRequests
	case "OPERATION_NOT_ALLOWED", "PASSWORD_LOGIN_DISABLED":
		code = CodeOperationNotAllowed
	case "EMAIL_EXISTS":
		code = CodeEmailAlreadyInUse
	case "WEAK_PASSWORD":
		code = CodeWeakPassword
	default:
		return newError("auth/internal-error", msg, nil)
	}
	return newError(code, strings.TrimSpace(detail), nil)
}
