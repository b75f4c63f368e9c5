package errutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
)

// Handle logs the error with a message and forwards it to Sentry when a
// client has been initialized. The error is returned as-is.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(err, msg)
	return err
}

// report sends err to Sentry. Expected client-side failures are not reported.
func report(err error, msg string) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	switch model.ClassifyError(err) {
	case model.ErrorKindOffline, model.ErrorKindValidation, model.ErrorKindUnauthenticated:
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if ge := goerr.Unwrap(err); ge != nil {
			scope.SetContext("values", sentry.Context(ge.Values()))
		}
		sentry.CaptureException(err)
	})
}

// StatusCode maps an error to the HTTP status that best describes it
func StatusCode(err error) int {
	switch model.ClassifyError(err) {
	case model.ErrorKindUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindConflict:
		return http.StatusConflict
	case model.ErrorKindValidation:
		return http.StatusBadRequest
	case model.ErrorKindOffline:
		return http.StatusServiceUnavailable
	case model.ErrorKindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleHTTP logs the error and writes an appropriate HTTP error response.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	if statusCode >= http.StatusInternalServerError {
		report(err, "HTTP error")
	}

	http.Error(w, err.Error(), statusCode)
}
