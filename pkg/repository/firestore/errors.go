package firestore

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// classify returns the model sentinel matching a Firestore error, or nil
// when the error has no handling class.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrTransient
	}

	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return model.ErrUnauthenticated
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal,
		codes.ResourceExhausted, codes.Aborted, codes.Unknown:
		return model.ErrTransient
	case codes.NotFound:
		return model.ErrNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.InvalidArgument:
		return model.ErrConflict
	default:
		return nil
	}
}

// wrapErr wraps err with its sentinel so that callers can branch on
// errors.Is. The backend error is kept as the "cause" value.
func wrapErr(err error, msg string, opts ...goerr.Option) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return goerr.Wrap(err, msg, opts...)
	}

	sentinel := classify(err)
	if sentinel == nil {
		return goerr.Wrap(err, msg, opts...)
	}
	opts = append(opts,
		goerr.V("cause", err.Error()),
		goerr.V("code", status.Code(err).String()))
	return goerr.Wrap(sentinel, msg, opts...)
}
