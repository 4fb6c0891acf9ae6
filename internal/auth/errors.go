package auth

import (
	"errors"
	"fmt"
)

// Error codes reported by identity providers
const (
	CodeInvalidEmail         = "auth/invalid-email"
	CodeUserDisabled         = "auth/user-disabled"
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeOperationNotAllowed  = "auth/operation-not-allowed"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeInvalidToken         = "auth/invalid-id-token"
)

// Error is an identity provider failure with a stable code
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Code returns the code of an *Error in err's chain, or ""
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

var messages = map[string]string{
	CodeInvalidEmail:         "Invalid email address format",
	CodeUserDisabled:         "This account has been disabled",
	CodeUserNotFound:         "No account found with this email",
	CodeWrongPassword:        "Incorrect password",
	CodeNetworkRequestFailed: "Network error. Please check your internet connection",
	CodeTooManyRequests:      "Too many failed login attempts. Please try again later",
	CodeOperationNotAllowed:  "Email/password authentication is not enabled in Firebase console",
	CodeEmailAlreadyInUse:    "An account with this email already exists",
	CodeWeakPassword:         "Password should be at least 6 characters",
}

// Message returns the text shown on the login screen for err
func Message(err error) string {
	return message(err, "Failed to sign in")
}

// SignUpMessage returns the text shown on the sign-up screen for err
func SignUpMessage(err error) string {
	return message(err, "Failed to create an account")
}

func message(err error, prefix string) string {
	if err == nil {
		return ""
	}
	if msg, ok := messages[Code(err)]; ok {
		return msg
	}

	detail := "Unknown error"
	var ae *Error
	switch {
	case errors.As(err, &ae) && ae.Message != "":
		detail = ae.Message
	case errors.As(err, &ae):
		detail = ae.Code
	case err.Error() != "":
		detail = err.Error()
	}
	return fmt.Sprintf("%s: %s", prefix, detail)
}
