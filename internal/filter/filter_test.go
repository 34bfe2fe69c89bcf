// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/restkit/internal/filter"
	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/apperr"
)

func actorModel() model.Model {
	actors := model.NewMemoryModel("actor", "actor_id",
		[]string{"actor_id", "first_name", "last_name", "age"})
	actors.Seed(
		map[string]any{"actor_id": 1, "first_name": "Penelope", "last_name": "Guiness", "age": 52},
		map[string]any{"actor_id": 2, "first_name": "Nick", "last_name": "Wahlberg", "age": 41},
		map[string]any{"actor_id": 3, "first_name": "Ed", "last_name": "Chase", "age": 63},
		map[string]any{"actor_id": 4, "first_name": "Jennifer", "last_name": "Davis", "age": 36},
	)
	return actors
}

/*
TestList_Defaults checks the compiled shape of a request with no query keys.
*/
func TestList_Defaults(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{})
	require.NoError(t, err)

	assert.Equal(t, filter.DefaultLimit, spec.Limit)
	assert.Nil(t, spec.Offset)
	assert.Empty(t, spec.Marker)
	assert.Empty(t, spec.Order)
	assert.Empty(t, spec.Filters)
	assert.True(t, spec.Fields.Empty())
}

/*
TestList_Pagination covers the limit/offset bounds and their stable codes.
*/
func TestList_Pagination(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		wantCode int
	}{
		{"limit_not_a_number", url.Values{"limit": {"abc"}}, 2410},
		{"limit_too_small", url.Values{"limit": {"0"}}, 2411},
		{"limit_too_large", url.Values{"limit": {"201"}}, 2411},
		{"limit_at_max", url.Values{"limit": {"200"}}, 0},
		{"offset_not_a_number", url.Values{"offset": {"x"}}, 2420},
		{"offset_negative", url.Values{"offset": {"-1"}}, 2421},
		{"offset_too_large", url.Values{"offset": {"10001"}}, 2421},
		{"offset_at_max", url.Values{"offset": {"10000"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := filter.List(actorModel(), tt.query)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, 400, ae.HTTPStatus)
		})
	}
}

/*
TestList_MarkerExclusivity verifies that a marker conflicts with offset and
order, reported as 409s.
*/
func TestList_MarkerExclusivity(t *testing.T) {
	_, err := filter.List(actorModel(), url.Values{
		"marker": {"15"},
		"offset": {"5"},
	})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 2422, ae.Code)
	assert.Equal(t, 409, ae.HTTPStatus)

	_, err = filter.List(actorModel(), url.Values{
		"marker": {"15"},
		"order":  {"last_name:desc"},
	})
	ae = apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 2450, ae.Code)
	assert.Equal(t, 409, ae.HTTPStatus)
}

/*
TestList_Filters checks named filter deduplication.
*/
func TestList_Filters(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{"filters": {"by-age, top"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"by-age", "top"}, spec.Filters)

	_, err = filter.List(actorModel(), url.Values{"filters": {"top,top"}})
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 2440, ae.Code)
}

/*
TestList_Order covers direction defaulting, normalization, and the two order
error codes.
*/
func TestList_Order(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{"order": {"age:desc,last_name"}})
	require.NoError(t, err)
	require.Len(t, spec.Order, 2)
	assert.Equal(t, model.OrderTerm{Field: "age", Direction: "DESC"}, spec.Order[0])
	assert.Equal(t, model.OrderTerm{Field: "last_name", Direction: "ASC"}, spec.Order[1])

	_, err = filter.List(actorModel(), url.Values{"order": {"height:asc"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2451, apperr.As(err).Code)

	_, err = filter.List(actorModel(), url.Values{"order": {"age:sideways"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2452, apperr.As(err).Code)
}

/*
TestList_Fields covers projection parsing: nested selection, duplicates, and
unknown top-level fields.
*/
func TestList_Fields(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{"fields": {"first_name,last_name"}})
	require.NoError(t, err)
	assert.True(t, spec.Fields.Has("first_name"))
	assert.True(t, spec.Fields.Has("last_name"))
	assert.False(t, spec.Fields.Has("age"))

	_, err = filter.List(actorModel(), url.Values{"fields": {"age,age"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2430, apperr.As(err).Code)

	_, err = filter.List(actorModel(), url.Values{"fields": {"nope"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2431, apperr.As(err).Code)
}

/*
TestList_Criteria covers the $field=operator:value grammar.
*/
func TestList_Criteria(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{
		"$age":       {"gt:40"},
		"$last_name": {"in:Chase,Davis"},
	})
	require.NoError(t, err)
	assert.Equal(t, "40", spec.Criteria["age"]["gt"])
	assert.Equal(t, []string{"Chase", "Davis"}, spec.Criteria["last_name"]["in"])

	_, err = filter.List(actorModel(), url.Values{"$height": {"gt:1"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2460, apperr.As(err).Code)

	_, err = filter.List(actorModel(), url.Values{"$age": {"near:40"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2461, apperr.As(err).Code)

	// A bare value without an operator prefix is malformed too.
	_, err = filter.List(actorModel(), url.Values{"$age": {"40"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2461, apperr.As(err).Code)
}

/*
TestList_Find runs a compiled spec end to end against the in-memory model.
*/
func TestList_Find(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{
		"$age":  {"gt:40"},
		"order": {"age:desc"},
		"limit": {"2"},
	})
	require.NoError(t, err)

	rows, count, err := spec.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, rows, 2)
	assert.Equal(t, 63, rows[0].Fields()["age"])
	assert.Equal(t, 52, rows[1].Fields()["age"])
}

/*
TestList_MarkerFind checks keyset pagination against the in-memory model.
*/
func TestList_MarkerFind(t *testing.T) {
	spec, err := filter.List(actorModel(), url.Values{
		"marker": {"2"},
		"limit":  {"10"},
	})
	require.NoError(t, err)

	rows, count, err := spec.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Fields()["actor_id"])
	assert.Equal(t, 4, rows[1].Fields()["actor_id"])
}

/*
TestEntity covers the entity-scoped compilation and lookup paths.
*/
func TestEntity(t *testing.T) {
	_, err := filter.Entity(actorModel(), "", url.Values{})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2470, apperr.As(err).Code)

	_, err = filter.Entity(actorModel(), "3", url.Values{"fields": {"nope"}})
	require.NotNil(t, apperr.As(err))
	assert.Equal(t, 2431, apperr.As(err).Code)

	spec, err := filter.Entity(actorModel(), "3", url.Values{})
	require.NoError(t, err)
	record, err := spec.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Chase", record.Fields()["last_name"])

	spec, err = filter.Entity(actorModel(), "999", url.Values{})
	require.NoError(t, err)
	_, err = spec.Read(context.Background())
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 404, ae.HTTPStatus)
}
