package model

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// Sentinel errors shared by the repositories and the sync use cases.
// Backend specific errors are wrapped with one of these so callers can
// decide on fallback and retry with errors.Is.
var (
	// Session is invalid or expired. Never retried; the user signs in again.
	ErrUnauthenticated = goerr.New("authentication required")

	// Network failure, timeout or server side error. Eligible for cache fallback.
	ErrTransient = goerr.New("backend temporarily unavailable")

	// The addressed document does not exist on the backend.
	ErrNotFound = goerr.New("document not found")

	// The write was rejected by the backend (already exists, precondition).
	ErrConflict = goerr.New("conflicting write")

	// A mutation was attempted without connectivity. Mutations are never queued.
	ErrOffline = goerr.New("cannot change cases while offline")

	// Cancelling a case needs a reason from the user.
	ErrCancelReasonRequired = goerr.New("a reason is required to cancel a case")

	// The case id is in neither the owned nor the public list held in memory.
	ErrCaseNotFound = goerr.New("case not found")

	ErrInvalidCase   = goerr.New("invalid case")
	ErrInvalidScope  = goerr.New("invalid scope")
	ErrInvalidStatus = goerr.New("invalid status")
)

// Context keys for error values
const (
	CaseIDKey     = "case_id"
	StatusKey     = "status"
	CollectionKey = "collection"
	ScopeKey      = "scope"
)

// ErrorKind is the handling class of an error
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindUnauthenticated
	ErrorKindTransient
	ErrorKindNotFound
	ErrorKindConflict
	ErrorKindOffline
	ErrorKindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnauthenticated:
		return "unauthenticated"
	case ErrorKindTransient:
		return "transient"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindConflict:
		return "conflict"
	case ErrorKindOffline:
		return "offline"
	case ErrorKindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ClassifyError returns the handling class of err
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorKindUnknown
	case errors.Is(err, ErrUnauthenticated):
		return ErrorKindUnauthenticated
	case errors.Is(err, ErrOffline):
		return ErrorKindOffline
	case errors.Is(err, ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTransient
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCaseNotFound):
		return ErrorKindNotFound
	case errors.Is(err, ErrConflict):
		return ErrorKindConflict
	case errors.Is(err, ErrCancelReasonRequired),
		errors.Is(err, ErrInvalidCase),
		errors.Is(err, ErrInvalidScope),
		errors.Is(err, ErrInvalidStatus):
		return ErrorKindValidation
	default:
		return ErrorKindUnknown
	}
}
