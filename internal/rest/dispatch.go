// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/platform/constants"
	"github.com/taibuivan/restkit/internal/respond"
	"github.com/taibuivan/restkit/internal/session"
)

// codeHandlerFailure is the stable code wrapping any handler failure that is
// not already a typed error.
const codeHandlerFailure = 4500

// dispatch builds the transport handler running one action through the
// pipeline: authentication, parameter validation, handler invocation,
// outcome settlement. Every stage funnels into the once-only writer, so a
// request receives exactly one response no matter which stage fails.
func (r *Registry) dispatch(action *Action) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writer := NewResponseWriter(w)

		if action.auth {
			sess, err := r.auth.Authenticate(req)
			if err != nil {
				// Authentication errors carry their own codes and pass
				// through unwrapped.
				if writer.Claim() {
					respond.RenderError(writer, req, err)
				}
				return
			}
			req = req.WithContext(session.WithContext(req.Context(), sess))
		}

		c := newCtx(writer, req, action)

		if err := action.validate(c); err != nil {
			finalizeError(c, err)
			return
		}

		r.settle(c, invoke(action, c))
	}
}

// invoke runs the handler, converting a panic into a failure outcome.
func invoke(action *Action, c *Ctx) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			out = Fail(err)
		}
	}()
	return action.handler(c)
}

// settle drives an outcome to its response.
func (r *Registry) settle(c *Ctx, out Outcome) {
	switch out.kind {
	case outcomeValue:
		finalizeValue(c, out.value)

	case outcomeFailed:
		finalizeError(c, out.err)

	case outcomePending:
		// Park the request goroutine on the eventual result. The transport
		// closes the response once dispatch returns, so returning before the
		// result is in would truncate the request.
		result := <-out.future
		if result.Err != nil {
			finalizeError(c, result.Err)
			return
		}
		finalizeValue(c, result.Value)

	case outcomeNone:
		// The handler took ownership of the response, finalizing through
		// [Ctx.Send] or by writing to the transport directly. Park with a
		// liveness watchdog: if nothing finalizes within the deadline, emit
		// an empty success envelope so the client never hangs on a forgotten
		// response.
		select {
		case <-c.Writer.Done():
		case <-time.After(constants.ResponseTimeout):
			if !c.Writer.Claim() {
				// Lost the race to a finalizer that is writing right now.
				<-c.Writer.Done()
				return
			}
			c.Logger().WarnContext(c.Context(), "response_timeout",
				"endpoint", c.action.endpoint.name,
				"verb", c.action.verb,
			)
			respond.Render(c.Writer, c.Request, nil)
			c.Writer.Finish()
		}
	}
}

// finalizeValue writes the success envelope, once.
func finalizeValue(c *Ctx, value any) {
	if !c.Writer.Claim() {
		return
	}
	respond.Render(c.Writer, c.Request, value)
	c.Writer.Finish()
}

// finalizeError writes the error envelope, once. Failures without a typed
// error are internal bugs: they are wrapped under a stable code, with the
// original detail kept in the log rather than leaked to the client.
func finalizeError(c *Ctx, err error) {
	if !apperr.IsAppError(err) {
		c.Logger().WarnContext(c.Context(), "handler_failure_coerced",
			"endpoint", c.action.endpoint.name,
			"verb", c.action.verb,
			"error", err.Error(),
		)
		err = apperr.Internal("", codeHandlerFailure, err)
	}
	if !c.Writer.Claim() {
		return
	}
	respond.RenderError(c.Writer, c.Request, err)
	c.Writer.Finish()
}
