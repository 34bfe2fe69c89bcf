// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/platform/constants"
	"github.com/taibuivan/restkit/internal/rest"
	"github.com/taibuivan/restkit/internal/session"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newServer(t *testing.T, auth *session.Manager, declare func(registry *rest.Registry)) *httptest.Server {
	t.Helper()
	registry := rest.NewRegistry(auth)
	declare(registry)

	router := chi.NewRouter()
	registry.Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, method, url, body string, header http.Header) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	for key, values := range header {
		req.Header[key] = values
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&parsed))
	return res.StatusCode, parsed
}

/*
TestDispatch_ValueOutcome checks the happy path on both bound routes: the
bare path and the format-suffixed variant.
*/
func TestDispatch_ValueOutcome(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("ping").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Value(map[string]any{"pong": true})
		})
	})

	status, body := do(t, http.MethodGet, server.URL+"/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"pong": true}`, string(body.Data))

	res, err := http.Get(server.URL + "/v1/ping.xml")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<pong>true</pong>")
}

/*
TestDispatch_ErrorCoercion checks failure normalization: typed errors keep
their code, anything else surfaces as a generic 500 with the dispatch code
and no internal detail.
*/
func TestDispatch_ErrorCoercion(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("typed").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Fail(apperr.Conflicts("already exists", 0))
		})
		registry.Endpoint("plain").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Fail(errors.New("pq: relation does not exist"))
		})
		registry.Endpoint("panicky").Get(func(c *rest.Ctx) rest.Outcome {
			panic("boom")
		})
	})

	status, body := do(t, http.MethodGet, server.URL+"/v1/typed", "", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, 1403, body.Error.Code)

	status, body = do(t, http.MethodGet, server.URL+"/v1/plain", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 4500, body.Error.Code)
	assert.NotContains(t, body.Error.Message, "relation")

	status, body = do(t, http.MethodGet, server.URL+"/v1/panicky", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 4500, body.Error.Code)
}

/*
TestDispatch_ParamValidation covers the declared-parameter checks: required
presence, type coercion, email format, and custom predicates.
*/
func TestDispatch_ParamValidation(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("signup").
			Post(func(c *rest.Ctx) rest.Outcome {
				return rest.Value(map[string]any{
					"email": c.String("email"),
					"age":   c.Number("age"),
				})
			}).
			Param("email", rest.ParamEmail, "Contact address", true).
			Param("age", rest.ParamNumber, "Age in years", false, func(v any) bool {
				return v.(float64) >= 18
			})
	})

	jsonHeader := http.Header{"Content-Type": {"application/json"}}

	status, body := do(t, http.MethodPost, server.URL+"/v1/signup", `{}`, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 4410, body.Error.Code)

	status, body = do(t, http.MethodPost, server.URL+"/v1/signup",
		`{"email": "not-an-address"}`, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 4411, body.Error.Code)

	status, body = do(t, http.MethodPost, server.URL+"/v1/signup",
		`{"email": "kid@example.com", "age": 11}`, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 4412, body.Error.Code)

	// Query values coerce to the declared kind; the body wins on conflict.
	status, body = do(t, http.MethodPost, server.URL+"/v1/signup?age=44",
		`{"email": "adult@example.com"}`, jsonHeader)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"email": "adult@example.com", "age": 44}`, string(body.Data))
}

/*
TestDispatch_AuthPrecedesEverything checks that a protected action rejects
before parameter validation or the handler run.
*/
func TestDispatch_AuthPrecedesEverything(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	manager := session.NewManager(
		session.NewRedisStore(client, constants.RedisPrefixSession), []byte("secret"))

	invoked := false
	server := newServer(t, manager, func(registry *rest.Registry) {
		registry.Endpoint("secret").
			Get(func(c *rest.Ctx) rest.Outcome {
				invoked = true
				return rest.Value(c.Session().Claims)
			}).
			Auth(true).
			Param("q", rest.ParamString, "Query", true)
	})

	// No token: the session module's own error wins over the missing param.
	status, body := do(t, http.MethodGet, server.URL+"/v1/secret", "", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, 7410, body.Error.Code)
	assert.False(t, invoked)

	// With a valid token the request proceeds to parameter validation.
	serverHost := strings.TrimPrefix(server.URL, "http://")
	token, err := manager.Issue(context.Background(),
		map[string]any{"username": "Mike"}, session.Meta{Host: serverHost})
	require.NoError(t, err)

	header := http.Header{"Authorization": {"Bearer " + token}}
	status, body = do(t, http.MethodGet, server.URL+"/v1/secret", "", header)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 4410, body.Error.Code)

	status, body = do(t, http.MethodGet, server.URL+"/v1/secret?q=x", "", header)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, invoked)
	assert.JSONEq(t, `{"username": "Mike"}`, string(body.Data))
}

/*
TestDispatch_NoRoute checks the typed fallback for unmatched paths and
methods.
*/
func TestDispatch_NoRoute(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("ping").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Value("pong")
		})
	})

	status, body := do(t, http.MethodGet, server.URL+"/v1/nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 7420, body.Error.Code)

	status, body = do(t, http.MethodDelete, server.URL+"/v1/ping", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 7420, body.Error.Code)
}

/*
TestDispatch_Defer checks the pending-outcome path end to end.
*/
func TestDispatch_Defer(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("slow").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Defer(func() (any, error) {
				time.Sleep(20 * time.Millisecond)
				return map[string]any{"ok": true}, nil
			})
		})
		registry.Endpoint("slowfail").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.Defer(func() (any, error) {
				return nil, apperr.NotFound("", 0)
			})
		})
	})

	status, body := do(t, http.MethodGet, server.URL+"/v1/slow", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok": true}`, string(body.Data))

	status, body = do(t, http.MethodGet, server.URL+"/v1/slowfail", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, 1404, body.Error.Code)
}

/*
TestDispatch_ManualSend checks a handler finalizing through Ctx.Send after
returning None.
*/
func TestDispatch_ManualSend(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("manual").Get(func(c *rest.Ctx) rest.Outcome {
			go func() {
				time.Sleep(20 * time.Millisecond)
				c.Send(map[string]any{"manual": true})
			}()
			return rest.None()
		})
	})

	start := time.Now()
	status, body := do(t, http.MethodGet, server.URL+"/v1/manual", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"manual": true}`, string(body.Data))
	assert.Less(t, time.Since(start), constants.ResponseTimeout,
		"a manual send releases the request before the watchdog deadline")
}

/*
TestDispatch_Watchdog checks the liveness fallback: a handler that never
responds still yields exactly one null envelope at the deadline.
*/
func TestDispatch_Watchdog(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("void").Get(func(c *rest.Ctx) rest.Outcome {
			return rest.None()
		})
	})

	start := time.Now()
	status, body := do(t, http.MethodGet, server.URL+"/v1/void", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(body.Data))
	assert.GreaterOrEqual(t, time.Since(start), constants.ResponseTimeout)
}

/*
TestDispatch_DirectWrite checks a handler that writes to the transport
itself: the request completes right away, with no watchdog wait and no
second body appended.
*/
func TestDispatch_DirectWrite(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("accepted").Get(func(c *rest.Ctx) rest.Outcome {
			c.Writer.WriteHeader(http.StatusNoContent)
			return rest.None()
		})
		registry.Endpoint("raw").Get(func(c *rest.Ctx) rest.Outcome {
			c.Writer.Header().Set("Content-Type", "text/plain")
			_, _ = c.Writer.Write([]byte("raw body"))
			return rest.None()
		})
	})

	start := time.Now()
	res, err := http.Get(server.URL + "/v1/accepted")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Less(t, time.Since(start), constants.ResponseTimeout,
		"a direct write releases the request without a watchdog wait")

	res, err = http.Get(server.URL + "/v1/raw")
	require.NoError(t, err)
	raw, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "raw body", string(raw))
}

/*
TestRegistry_DeclarationErrors checks the configuration panics guarding
route declaration.
*/
func TestRegistry_DeclarationErrors(t *testing.T) {
	registry := rest.NewRegistry(nil)
	handler := func(c *rest.Ctx) rest.Outcome { return rest.Value(nil) }

	// Declaration mistakes panic with a typed configuration error.
	configurationPanic := func(t *testing.T, wantMessage string, declare func()) {
		t.Helper()
		defer func() {
			err, ok := recover().(error)
			require.True(t, ok, "expected a declaration panic")
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, 1500, ae.Code)
			assert.Equal(t, wantMessage, ae.Message)
		}()
		declare()
	}

	configurationPanic(t, `Unknown verb "fetch" on endpoint "x"`, func() {
		registry.Endpoint("x").Method("fetch", 1, handler)
	})
	configurationPanic(t, `Invalid version 0 on endpoint "x"`, func() {
		registry.Endpoint("x").Method("get", 0, handler)
	})

	registry.Endpoint("x").Get(handler)
	registry.Register(chi.NewRouter())

	assert.Panics(t, func() { registry.Endpoint("y") }, "frozen registry rejects new endpoints")
	assert.Panics(t, func() { registry.Endpoint("x").Post(handler) }, "frozen endpoint rejects new actions")
}

/*
TestEndpoint_Replacement checks versioned re-registration and unregistration
semantics.
*/
func TestEndpoint_Replacement(t *testing.T) {
	registry := rest.NewRegistry(nil)
	endpoint := registry.Endpoint("/things")

	endpoint.Method("get", 2, func(c *rest.Ctx) rest.Outcome { return rest.Value("v2 first") })
	endpoint.Method("get", 2, func(c *rest.Ctx) rest.Outcome { return rest.Value("v2 second") })
	assert.True(t, endpoint.Has("get", 2))

	endpoint.Method("get", 2, nil)
	assert.False(t, endpoint.Has("get", 2))

	// The leading slash is cosmetic: both names address the same endpoint.
	assert.Same(t, endpoint, registry.Endpoint("things"))
}

/*
TestRegistry_Help checks the self-describing endpoint, including the merged
caller meta document.
*/
func TestRegistry_Help(t *testing.T) {
	server := newServer(t, nil, func(registry *rest.Registry) {
		registry.Endpoint("actors").
			Get(func(c *rest.Ctx) rest.Outcome { return rest.Value(nil) }).
			Describe("Lists actors").
			Param("q", rest.ParamString, "Search term", false)
		registry.Help(map[string]any{"name": "sample", "version": "1.0"})
	})

	status, body := do(t, http.MethodGet, server.URL+"/v1/help", "", nil)
	require.Equal(t, http.StatusOK, status)

	var doc struct {
		Name      string `json:"name"`
		Version   string `json:"version"`
		Endpoints map[string]struct {
			Actions map[string]struct {
				Description string `json:"description"`
				Protected   bool   `json:"protected"`
				Params      map[string]struct {
					Type     string `json:"type"`
					Required bool   `json:"required"`
				} `json:"params"`
			} `json:"actions"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &doc))

	assert.Equal(t, "sample", doc.Name)
	assert.Equal(t, "1.0", doc.Version)
	require.Contains(t, doc.Endpoints, "actors")
	action := doc.Endpoints["actors"].Actions["get v1"]
	assert.Equal(t, "Lists actors", action.Description)
	assert.False(t, action.Protected)
	assert.Equal(t, "string", action.Params["q"].Type)
	require.Contains(t, doc.Endpoints, "help")
}
