package auth

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid email", newError(CodeInvalidEmail, "", nil), "Invalid email address format"},
		{"disabled", newError(CodeUserDisabled, "", nil), "This account has been disabled"},
		{"not found", newError(CodeUserNotFound, "", nil), "No account found with this email"},
		{"wrong password", newError(CodeWrongPassword, "", nil), "Incorrect password"},
		{"network", newError(CodeNetworkRequestFailed, "", nil), "Network error. Please check your internet connection"},
		{"too many", newError(CodeTooManyRequests, "", nil), "Too many failed login attempts. Please try again later"},
		{"not allowed", newError(CodeOperationNotAllowed, "", nil), "Email/password authentication is not enabled in Firebase console"},
		{"wrapped", fmt.Errorf("login: %w", newError(CodeWrongPassword, "", nil)), "Incorrect password"},
		{"unknown code with message", newError("auth/internal-error", "BACKEND_DOWN", nil), "Failed to sign in: BACKEND_DOWN"},
		{"unknown code", newError("auth/quota-exceeded", "", nil), "Failed to sign in: auth/quota-exceeded"},
		{"plain error", errors.New("boom"), "Failed to sign in: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignUpMessage(t *testing.T) {
	if got := SignUpMessage(newError(CodeEmailAlreadyInUse, "", nil)); got != "An account with this email already exists" {
		t.Errorf("SignUpMessage() = %q", got)
	}
	if got := SignUpMessage(errors.New("boom")); got != "Failed to create an account: boom" {
		t.Errorf("SignUpMessage() = %q", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := newError(CodeNetworkRequestFailed, "", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Error() != CodeNetworkRequestFailed {
		t.Errorf("Error() = %q", err.Error())
	}
}
