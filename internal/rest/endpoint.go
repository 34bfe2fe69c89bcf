// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/taibuivan/restkit/internal/platform/apperr"
)

// verbMethods maps declaration verbs onto HTTP methods. Declarations use the
// lowercase verb form.
var verbMethods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"delete": http.MethodDelete,
}

// Endpoint is a named resource grouping its actions by verb and version.
// Endpoints are declared during startup and frozen once the registry is
// bound to a router.
type Endpoint struct {
	registry *Registry
	name     string
	auth     bool

	// actions[verb][version]
	actions map[string]map[int]*Action
}

// Auth sets the authentication default inherited by actions declared after
// this call. Individual actions may override it with [Action.Auth].
func (e *Endpoint) Auth(required bool) *Endpoint {
	e.checkMutable()
	e.auth = required
	return e
}

// Name returns the endpoint's registration name.
func (e *Endpoint) Name() string {
	return e.name
}

// Has reports whether an action is registered for the verb and version.
func (e *Endpoint) Has(verb string, version int) bool {
	return e.actions[verb][version] != nil
}

// Get declares the version 1 read action.
func (e *Endpoint) Get(handler HandlerFunc) *Action {
	return e.Method("get", 1, handler)
}

// Post declares the version 1 create action.
func (e *Endpoint) Post(handler HandlerFunc) *Action {
	return e.Method("post", 1, handler)
}

// Put declares the version 1 update action.
func (e *Endpoint) Put(handler HandlerFunc) *Action {
	return e.Method("put", 1, handler)
}

// Delete declares the version 1 delete action.
func (e *Endpoint) Delete(handler HandlerFunc) *Action {
	return e.Method("delete", 1, handler)
}

// Method declares (or, with a nil handler, removes) the action bound to a
// verb and version. Declaration mistakes are configuration errors and panic:
// they are programmer bugs surfacing at startup, not runtime conditions.
func (e *Endpoint) Method(verb string, version int, handler HandlerFunc) *Action {
	e.checkMutable()
	if _, known := verbMethods[verb]; !known {
		panic(apperr.Configuration(fmt.Sprintf("Unknown verb %q on endpoint %q", verb, e.name)))
	}
	if version < 1 {
		panic(apperr.Configuration(fmt.Sprintf("Invalid version %d on endpoint %q", version, e.name)))
	}

	if handler == nil {
		delete(e.actions[verb], version)
		return nil
	}

	if e.actions[verb] == nil {
		e.actions[verb] = make(map[int]*Action)
	}
	action := &Action{
		endpoint: e,
		verb:     verb,
		version:  version,
		auth:     e.auth,
		handler:  handler,
		params:   make(map[string]*ParamSpec),
	}
	e.actions[verb][version] = action
	return action
}

func (e *Endpoint) checkMutable() {
	if e.registry.frozen {
		panic(apperr.Configuration(fmt.Sprintf(
			"Endpoint %q modified after the registry was bound", e.name)))
	}
}

// normalizeName strips the optional leading slash so "/actor" and "actor"
// address the same endpoint.
func normalizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}
