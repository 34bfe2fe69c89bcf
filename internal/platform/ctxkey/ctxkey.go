// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines private context key types shared across the platform.
//
// Using a dedicated unexported type prevents collisions with context values
// set by third-party packages.
package ctxkey

// Key is the type used for all context values owned by this module.
type Key string

const (
	// KeyRequestID stores the per-request correlation ID.
	KeyRequestID Key = "request_id"

	// KeyLogger stores the per-request *slog.Logger.
	KeyLogger Key = "logger"

	// KeySession stores the validated *session.Session for the request
	// lifetime, making authentication idempotent within one request.
	KeySession Key = "session"
)
