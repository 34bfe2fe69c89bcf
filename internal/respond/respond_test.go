// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/internal/respond"
	"github.com/taibuivan/restkit/pkg/fieldmask"
)

func record(t *testing.T) model.Record {
	t.Helper()
	actors := model.NewMemoryModel("actor", "actor_id",
		[]string{"actor_id", "first_name", "last_name", "_password"})
	actors.Seed(map[string]any{
		"actor_id": 7, "first_name": "Grace", "last_name": "Mostel", "_password": "hash",
	})
	rec, err := actors.FindByPK(t.Context(), "7")
	require.NoError(t, err)
	return rec
}

func mask(t *testing.T, paths ...string) fieldmask.Mask {
	t.Helper()
	m := fieldmask.New()
	for _, p := range paths {
		require.True(t, m.Add(p))
	}
	return m
}

/*
TestProject_Mask checks field selection and private-key suppression.
*/
func TestProject_Mask(t *testing.T) {
	projected := respond.Project(record(t), mask(t, "first_name"))

	out, ok := projected.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"first_name": "Grace"}, out)

	// No mask: everything except private keys.
	full, ok := respond.Project(record(t), nil).(map[string]any)
	require.True(t, ok)
	assert.Contains(t, full, "last_name")
	assert.NotContains(t, full, "_password", "private keys never serialize")
}

/*
TestProject_ListWrapper checks that the selection applies to the records of a
list response, not to the {count, rows} container around them.
*/
func TestProject_ListWrapper(t *testing.T) {
	value := map[string]any{
		"count": 8,
		"rows":  []any{record(t)},
	}

	out, ok := respond.Project(value, mask(t, "first_name")).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 8, out["count"], "container keys survive the selection")

	rows, ok := out["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"first_name": "Grace"}, rows[0])
}

/*
TestProject_Idempotent verifies that re-projecting an already projected value
without a mask exposes exactly the previously selected keys.
*/
func TestProject_Idempotent(t *testing.T) {
	once := respond.Project(record(t), mask(t, "first_name", "last_name"))
	twice := respond.Project(once, nil)
	assert.Equal(t, once, twice)
}

/*
TestProject_ReferenceStub checks that a nested record collapses to the
minimal {id, type} reference unless explicitly expanded.
*/
func TestProject_ReferenceStub(t *testing.T) {
	value := map[string]any{
		"name":  "Academy Dinosaur",
		"actor": record(t),
	}

	out, ok := respond.Project(value, nil).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"id": 7, "type": "actor"}, out["actor"])

	// Explicit sub-selection expands the nested record instead.
	expanded, ok := respond.Project(value, mask(t, "actor.first_name")).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"first_name": "Grace"}, expanded["actor"])
}

/*
TestProject_Dates checks the epoch-millisecond rendering of time values.
*/
func TestProject_Dates(t *testing.T) {
	when := time.UnixMilli(1723852800000)
	out, ok := respond.Project(map[string]any{"last_update": when}, nil).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1723852800000), out["last_update"])
}

/*
TestRender_JSONEnvelope checks the {data} envelope and the fields projection
taken from the request query.
*/
func TestRender_JSONEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/actors/7?fields=last_name", nil)
	rec := httptest.NewRecorder()

	respond.Render(rec, req, record(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, map[string]any{"last_name": "Mostel"}, envelope.Data)
}

/*
TestRender_ErrorEnvelope checks the {error} envelope: status mapping, stable
code, support link, and the coercion of non-typed errors.
*/
func TestRender_ErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/actors", nil)
	rec := httptest.NewRecorder()

	respond.RenderError(rec, req, apperr.NotFound("actor not found", 0))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1404, envelope.Error.Code)
	assert.Equal(t, "actor not found", envelope.Error.Message)
	assert.Equal(t, apperr.SupportURL+"1404", envelope.Error.Details)

	// A plain error is coerced to a generic 500; its detail stays server-side.
	rec = httptest.NewRecorder()
	respond.RenderError(rec, req, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

/*
TestRender_XMLFormat checks format negotiation through the path
discriminator and the shape of the XML rendering.
*/
func TestRender_XMLFormat(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/v1/actors.{format}", func(w http.ResponseWriter, r *http.Request) {
		respond.Render(w, r, map[string]any{
			"count": 1,
			"rows":  []any{map[string]any{"first_name": "Grace & co"}},
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/actors.xml", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `<?xml version="1.0" encoding="utf-8"?>`)
	assert.Contains(t, body, "<response>")
	assert.Contains(t, body, "<count>1</count>")
	assert.Contains(t, body, "<item>")
	assert.Contains(t, body, "Grace &amp; co")
}

/*
TestMarshalXML_Deterministic checks sorted key order and tab indentation.
*/
func TestMarshalXML_Deterministic(t *testing.T) {
	out := respond.MarshalXML(map[string]any{"b": "2", "a": "1"})
	assert.Equal(t,
		"<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<response>\n\t<a>1</a>\n\t<b>2</b>\n</response>",
		out)
}
