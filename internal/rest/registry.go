// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rest is the request dispatch pipeline: it maps named endpoints and
versioned actions onto HTTP routes and drives every request through a fixed
sequence of stages.

Pipeline stages, in order:

  - Authentication, when the endpoint is protected. Failures short-circuit
    with the session module's own error codes.
  - Parameter validation against the action's declared inputs.
  - Handler invocation, panic-safe.
  - Outcome settlement: direct values and failures render immediately,
    pending results render on completion, and a handler returning nothing
    arms a liveness watchdog so no client ever hangs on a forgotten
    response.

Endpoints are declared during startup via [Registry.Endpoint] and frozen by
[Registry.Register]; later mutation panics with a configuration error.
*/
package rest

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/respond"
	"github.com/taibuivan/restkit/internal/session"
)

// codeNoRoute is the stable code for requests matching no declared action.
const codeNoRoute = 7420

// Registry owns the endpoint namespace of one API. It is not safe for
// concurrent declaration; declare everything during startup, then bind.
type Registry struct {
	auth      *session.Manager
	endpoints map[string]*Endpoint
	frozen    bool
}

// NewRegistry creates an empty registry authenticating protected endpoints
// through the given session manager.
func NewRegistry(auth *session.Manager) *Registry {
	return &Registry{
		auth:      auth,
		endpoints: make(map[string]*Endpoint),
	}
}

// Endpoint returns the named endpoint, creating it on first use. A leading
// slash in the name is ignored.
func (r *Registry) Endpoint(name string) *Endpoint {
	name = normalizeName(name)
	if endpoint, found := r.endpoints[name]; found {
		return endpoint
	}
	if r.frozen {
		panic(apperr.Configuration("Endpoint " + strconv.Quote(name) + " declared after the registry was bound"))
	}
	endpoint := &Endpoint{
		registry: r,
		name:     name,
		actions:  make(map[string]map[int]*Action),
	}
	r.endpoints[name] = endpoint
	return endpoint
}

// Register binds every declared action onto the router and freezes the
// registry. Each action answers on two routes: the bare path and the
// format-suffixed variant selecting the wire format.
//
//	GET /v1/actor
//	GET /v1/actor.xml
//
// Unmatched paths and methods fall through to a uniform typed error instead
// of the router's plain-text defaults.
func (r *Registry) Register(router chi.Router) {
	r.frozen = true

	for _, name := range r.endpointNames() {
		endpoint := r.endpoints[name]
		for verb, versions := range endpoint.actions {
			method := verbMethods[verb]
			for version, action := range versions {
				handler := r.dispatch(action)
				path := "/v" + strconv.Itoa(version) + "/" + name
				router.Method(method, path, handler)
				router.Method(method, path+".{format}", handler)
			}
		}
	}

	noRoute := func(w http.ResponseWriter, req *http.Request) {
		respond.RenderError(w, req, apperr.BadFormat("No matching action for this route", codeNoRoute))
	}
	router.NotFound(noRoute)
	router.MethodNotAllowed(noRoute)
}

func (r *Registry) endpointNames() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
