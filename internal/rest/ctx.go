// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/restkit/internal/filter"
	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/ctxutil"
	"github.com/taibuivan/restkit/internal/session"
)

// Ctx carries one request through the dispatch pipeline: the once-only
// response writer, the merged input parameters, and the validated session
// when the endpoint is protected.
type Ctx struct {
	Writer  *ResponseWriter
	Request *http.Request

	action *Action
	values map[string]any
}

func newCtx(w *ResponseWriter, r *http.Request, action *Action) *Ctx {
	c := &Ctx{Writer: w, Request: r, action: action, values: make(map[string]any)}

	// Query parameters first, body fields on top: the body wins on conflict.
	for key, list := range r.URL.Query() {
		if len(list) > 0 {
			c.values[key] = list[0]
		}
	}
	if hasJSONBody(r) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for key, value := range body {
				c.values[key] = value
			}
		}
	}
	return c
}

func hasJSONBody(r *http.Request) bool {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodDelete {
		return false
	}
	contentType := r.Header.Get("Content-Type")
	return contentType == "" || strings.HasPrefix(contentType, "application/json")
}

// Context returns the request context.
func (c *Ctx) Context() context.Context {
	return c.Request.Context()
}

// Logger returns the request-scoped logger.
func (c *Ctx) Logger() *slog.Logger {
	return ctxutil.GetLogger(c.Request.Context())
}

// Session returns the validated session, or nil on unprotected endpoints.
func (c *Ctx) Session() *session.Session {
	return session.FromContext(c.Request.Context())
}

// Param returns a request input by name. Declared parameters come back in
// their coerced form; undeclared inputs come back as decoded.
func (c *Ctx) Param(name string) (any, bool) {
	value, present := c.values[name]
	return value, present
}

// String returns a textual input, or the empty string when absent.
func (c *Ctx) String(name string) string {
	value, _ := c.values[name].(string)
	return value
}

// Number returns a numeric input, or zero when absent.
func (c *Ctx) Number(name string) float64 {
	value, _ := c.values[name].(float64)
	return value
}

func (c *Ctx) setParam(name string, value any) {
	c.values[name] = value
}

// PathParam returns a routing placeholder value.
func (c *Ctx) PathParam(name string) string {
	return chi.URLParam(c.Request, name)
}

// List compiles the request's query arguments into a validated collection
// filter for the target model.
func (c *Ctx) List(target model.Model) (*filter.ListSpec, error) {
	return filter.List(target, c.Request.URL.Query())
}

// Entity compiles a single-record lookup for the target model, keyed by the
// "id" routing placeholder.
func (c *Ctx) Entity(target model.Model) (*filter.EntitySpec, error) {
	return filter.Entity(target, c.PathParam("id"), c.Request.URL.Query())
}

// Send finalizes the response with a success value. Used by handlers that
// returned [None] and complete on their own schedule; a response already
// written (by the watchdog included) makes Send a no-op.
func (c *Ctx) Send(value any) {
	finalizeValue(c, value)
}

// SendError finalizes the response with an error, applying the same typed
// coercion as a [Fail] outcome.
func (c *Ctx) SendError(err error) {
	finalizeError(c, err)
}
