// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error taxonomy for Restkit.

It provides a rich error type that bridges the gap between low-level component
failures and high-level HTTP responses.

Architecture:

  - AppError: A struct carrying an HTTP status, a stable numeric code, and a
    client-safe message.
  - Codes: Every error exposes a documented 4-digit code so that clients can
    link a failing response to its support entry.
  - Mapping: Explicit mapping from AppError to standard HTTP status codes.

Error codes are 4-digit numbers where each digit carries information:

  - 1st: owning module (1 generic, 2 filtering, 3 entity, 4 routing,
    5 response, 6 model, 7 session/auth)
  - 2nd: origin (4 from the client, 5 from the server)
  - 3rd/4th: entry and incremental value, module specific

Every error that leaves a component should be an [AppError] so that responses
stay consistent across the API surface.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// SupportURL is the base link embedded in the Details field of every error.
// Clients can append the numeric code to reach the matching documentation page.
const SupportURL = "https://restkit.dev/support/"

// AppError is the canonical error type for the Restkit core.
//
// It carries an HTTP status code, a stable numeric code, a client-safe
// message, and an optional wrapped cause.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to
// clients to avoid leaking internal implementation details.
type AppError struct {
	// Code is the stable numeric error identifier (e.g. 2410, 7412).
	Code int `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// Details is a support link derived from the numeric code.
	Details string `json:"details,omitempty"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("HTTP %d (#%d): %s: %v", e.HTTPStatus, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("HTTP %d (#%d): %s", e.HTTPStatus, e.Code, e.Message)
}

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// newError builds an [AppError], applying the defaults of the taxonomy:
// a zero code falls back to the kind's generic code.
func newError(status int, message string, code, defaultCode int) *AppError {
	if code == 0 {
		code = defaultCode
	}
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    fmt.Sprintf("%s%d", SupportURL, code),
		HTTPStatus: status,
	}
}

// # Client Errors (4xx)

// BadFormat creates a 400 [AppError] for a syntactically malformed value.
func BadFormat(message string, code int) *AppError {
	if message == "" {
		message = "Bad field format"
	}
	return newError(http.StatusBadRequest, message, code, 1401)
}

// BadArgument creates a 400 [AppError] for an unexpected or invalid argument.
func BadArgument(message string, code int) *AppError {
	if message == "" {
		message = "Bad/unexpected argument"
	}
	return newError(http.StatusBadRequest, message, code, 1402)
}

// Conflicts creates a 409 [AppError] for mutually exclusive inputs or
// duplicate resources.
func Conflicts(message string, code int) *AppError {
	return newError(http.StatusConflict, message, code, 1403)
}

// NotFound creates a 404 [AppError].
func NotFound(message string, code int) *AppError {
	if message == "" {
		message = "Resource not found"
	}
	return newError(http.StatusNotFound, message, code, 1404)
}

// Unauthorized creates a 401 [AppError] for failed credential checks.
func Unauthorized(message string, code int) *AppError {
	return newError(http.StatusUnauthorized, message, code, 1405)
}

// Forbidden creates a 403 [AppError] for requests missing credentials.
func Forbidden(message string, code int) *AppError {
	return newError(http.StatusForbidden, message, code, 1406)
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(message string, code int, cause error) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	e := newError(http.StatusInternalServerError, message, code, 1501)
	e.Cause = cause
	return e
}

// Configuration creates a 500 [AppError] reserved for programming mistakes
// detected at route-declaration time (bad verb, bad version).
func Configuration(message string) *AppError {
	return newError(http.StatusInternalServerError, message, 1500, 1500)
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
