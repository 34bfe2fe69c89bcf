// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"fmt"
	"net/mail"
	"sort"
	"strconv"

	"github.com/taibuivan/restkit/internal/platform/apperr"
)

// Stable error codes of the parameter validation stage.
const (
	codeParamMissing = 4410
	codeParamType    = 4411
	codeParamCheck   = 4412
)

// ParamKind is the declared wire type of an input parameter.
type ParamKind string

const (
	// ParamString accepts any textual value.
	ParamString ParamKind = "string"
	// ParamEmail accepts an RFC 5322 address.
	ParamEmail ParamKind = "email"
	// ParamNumber accepts a numeric value; textual digits are coerced.
	ParamNumber ParamKind = "number"
)

// CheckFunc is a caller-supplied predicate applied after the type check.
type CheckFunc func(value any) bool

// ParamSpec declares one input parameter of an action.
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Description string
	Required    bool
	Checks      []CheckFunc
}

// HandlerFunc is the application logic of one action.
type HandlerFunc func(c *Ctx) Outcome

// Action binds a handler to one verb and version of an endpoint, together
// with its declared parameters.
type Action struct {
	endpoint    *Endpoint
	verb        string
	version     int
	auth        bool
	handler     HandlerFunc
	description string
	params      map[string]*ParamSpec
}

// Auth marks the action as requiring a validated session. Requests failing
// authentication never reach parameter validation or the handler.
func (a *Action) Auth(required bool) *Action {
	a.endpoint.checkMutable()
	a.auth = required
	return a
}

// Protected reports whether the action requires authentication.
func (a *Action) Protected() bool {
	return a.auth
}

// Describe attaches human-readable documentation, surfaced by the help
// endpoint.
func (a *Action) Describe(text string) *Action {
	a.endpoint.checkMutable()
	a.description = text
	return a
}

// Param declares an input parameter. Validation runs before the handler;
// a request failing any declared constraint never reaches it.
func (a *Action) Param(name string, kind ParamKind, description string, required bool, checks ...CheckFunc) *Action {
	a.endpoint.checkMutable()
	switch kind {
	case ParamString, ParamEmail, ParamNumber:
	default:
		panic(apperr.Configuration(fmt.Sprintf(
			"Unknown parameter kind %q on %s %s", kind, a.verb, a.endpoint.name)))
	}
	a.params[name] = &ParamSpec{
		Name:        name,
		Kind:        kind,
		Description: description,
		Required:    required,
		Checks:      checks,
	}
	return a
}

// Endpoint returns the owning endpoint, for continued chained declaration.
func (a *Action) Endpoint() *Endpoint {
	return a.endpoint
}

// validate checks the request inputs against the declared parameters,
// coercing values where the declared kind allows it. Parameters are checked
// in name order so the reported failure is deterministic.
func (a *Action) validate(c *Ctx) error {
	names := make([]string, 0, len(a.params))
	for name := range a.params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := a.params[name]
		value, present := c.Param(name)
		if !present || value == "" || value == nil {
			if spec.Required {
				return apperr.BadArgument(
					fmt.Sprintf("Missing required parameter %q", name), codeParamMissing)
			}
			continue
		}

		coerced, err := coerceParam(spec, value)
		if err != nil {
			return err
		}
		c.setParam(name, coerced)

		for _, check := range spec.Checks {
			if !check(coerced) {
				return apperr.BadArgument(
					fmt.Sprintf("Parameter %q failed validation", name), codeParamCheck)
			}
		}
	}
	return nil
}

func coerceParam(spec *ParamSpec, value any) (any, error) {
	switch spec.Kind {
	case ParamString:
		text, ok := value.(string)
		if !ok {
			return nil, apperr.BadArgument(
				fmt.Sprintf("Parameter %q must be a string", spec.Name), codeParamType)
		}
		return text, nil

	case ParamEmail:
		text, ok := value.(string)
		if !ok {
			return nil, apperr.BadArgument(
				fmt.Sprintf("Parameter %q must be an email address", spec.Name), codeParamType)
		}
		if _, err := mail.ParseAddress(text); err != nil {
			return nil, apperr.BadArgument(
				fmt.Sprintf("Parameter %q must be an email address", spec.Name), codeParamType)
		}
		return text, nil

	case ParamNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, apperr.BadArgument(
					fmt.Sprintf("Parameter %q must be a number", spec.Name), codeParamType)
			}
			return parsed, nil
		default:
			return nil, apperr.BadArgument(
				fmt.Sprintf("Parameter %q must be a number", spec.Name), codeParamType)
		}
	}
	return value, nil
}
