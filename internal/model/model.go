// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package model declares the persistence boundary the core compiles queries
against.

The core never talks to a storage engine directly: the query filter compiler
validates requests against a model's declared attribute set and produces an
engine-agnostic [QueryOptions], and implementations of [Model] translate that
shape into their native query language.

Implementations in this repository:

  - memory: an in-memory model used by tests and the demo application.
  - postgres: a pgx-backed model translating [QueryOptions] to SQL.
*/
package model

import "context"

// QueryOptions is the normalized, engine-agnostic query shape produced by
// the filter compiler.
type QueryOptions struct {
	// Where maps field name to operator to comparison value,
	// all criteria combined by conjunction.
	Where map[string]map[string]any

	// Limit is the maximum result-set size. Always set.
	Limit int

	// Offset is the starting position, nil when not requested.
	Offset *int

	// Marker is an opaque pagination cursor, mutually exclusive with
	// Offset and Order.
	Marker string

	// Order lists (field, "ASC"|"DESC") pairs.
	Order []OrderTerm
}

// OrderTerm is one ordering criterion.
type OrderTerm struct {
	Field     string
	Direction string // "ASC" or "DESC"
}

// Model is a named entity type exposing its declared attributes and the
// lookup/mutation capabilities the core depends on.
type Model interface {
	// Name is the entity type name (e.g. "Actor").
	Name() string

	// Attributes is the declared attribute-name set. Every field referenced
	// in ordering, criteria, or projection must be a member.
	Attributes() []string

	// FindByPK fetches a single record by its primary key.
	FindByPK(ctx context.Context, id string) (Record, error)

	// FindAndCountAll fetches matching records and the total match count.
	FindAndCountAll(ctx context.Context, opts QueryOptions) ([]Record, int, error)

	// Create persists a new record built from the given field values.
	Create(ctx context.Context, values map[string]any) (Record, error)
}

// Record is a single stored entity instance.
//
// The response serializer collapses a Record without an explicit projection
// to a minimal {id, type} reference stub, preventing unbounded graph
// expansion by default.
type Record interface {
	// PrimaryKey returns the record identifier.
	PrimaryKey() any

	// ModelName returns the owning model's name.
	ModelName() string

	// Fields returns the record's attribute values.
	Fields() map[string]any

	// Save persists in-place modifications.
	Save(ctx context.Context) error

	// Destroy removes the record from storage.
	Destroy(ctx context.Context) error
}
