package http

import (
	"context"
	"errors"
	"net/http"

	"budgify/internal/auth"
	"budgify/internal/core"
	applog "budgify/internal/log"
)

// statusFor maps an error from the service layer onto an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return applog.ErrorTypeValidation
	case http.StatusUnauthorized:
		return applog.ErrorTypeAuth
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	case http.StatusConflict:
		return applog.ErrorTypeConflict
	case http.StatusServiceUnavailable:
		return applog.ErrorTypeTimeout
	}
	return applog.ErrorTypeInternal
}

// writeError sends {"error": ...}. Client errors carry their message; server
// errors are logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentHTTP)

	switch status {
	case http.StatusInternalServerError:
		fields := applog.NewFields().
			WithUser(auth.UserID(ctx)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "", "")
		applog.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, errorType(status), fields)
		InternalServerError().Write(w)
	case http.StatusServiceUnavailable:
		logger.WarnContext(ctx, "Request timed out", applog.FieldError, err)
		ErrorResponse(status, "request timed out").Write(w)
	default:
		logger.DebugContext(ctx, "Request rejected",
			applog.FieldStatusCode, status,
			applog.FieldErrorType, errorType(status),
			applog.FieldError, err)
		ErrorResponse(status, err.Error()).Write(w)
	}
}

// userID returns the authenticated user. Routes that call it sit behind
// auth.RequireAuth.
func userID(r *http.Request) string {
	return auth.UserID(r.Context())
}
