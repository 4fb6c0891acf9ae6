package store

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind is a coarse classification of document store failures
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindPermissionDenied   ErrorKind = "permission-denied"
	KindFailedPrecondition ErrorKind = "failed-precondition"
	KindUnavailable        ErrorKind = "unavailable"
	KindNotFound           ErrorKind = "not-found"
	KindOther              ErrorKind = "other"
)

// Operation names a repository call for banner wording
type Operation string

const (
	OpFetch  Operation = "fetch"
	OpAdd    Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Classify maps err to an ErrorKind using its gRPC status code.
// Wrapped errors are unwrapped.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}

	var se interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &se) {
		return KindOther
	}

	switch se.GRPCStatus().Code() {
	case codes.PermissionDenied, codes.Unauthenticated:
		return KindPermissionDenied
	case codes.FailedPrecondition:
		return KindFailedPrecondition
	case codes.Unavailable, codes.DeadlineExceeded:
		return KindUnavailable
	case codes.NotFound:
		return KindNotFound
	default:
		return KindOther
	}
}

// IsNotFound reports whether err is a store not-found error
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}

// Banner returns the persistent message shown when op fails with err.
// It returns "" for a nil error.
func Banner(op Operation, err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindPermissionDenied:
		return "Permission denied. Please check Firestore security rules."
	case KindFailedPrecondition:
		return "Firestore index required. Check console for details."
	case KindUnavailable:
		return "Firestore service unavailable. Please try again later."
	}

	switch op {
	case OpFetch:
		return fmt.Sprintf("Failed to fetch projects: %v", err)
	case OpAdd:
		return fmt.Sprintf("Failed to add project: %v", err)
	case OpUpdate:
		return "Failed to update project"
	case OpDelete:
		return "Failed to delete project"
	default:
		return fmt.Sprintf("Operation failed: %v", err)
	}
}
