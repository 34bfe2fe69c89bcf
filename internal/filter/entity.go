// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter

import (
	"context"
	"net/url"

	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/pkg/fieldmask"
)

// EntitySpec is a compiled entity-scoped filtering request: a single-record
// lookup with an optional output projection.
type EntitySpec struct {
	// ID is the path-supplied entity identifier.
	ID string
	// Fields is the requested output projection.
	Fields fieldmask.Mask

	target model.Model
}

// Entity compiles an entity-scoped request. The identifier comes from the
// route path and is required.
func Entity(target model.Model, id string, values url.Values) (*EntitySpec, error) {
	if id == "" {
		return nil, apperr.BadArgument("Missing entity identifier", codeEntityID)
	}
	fields, err := parseFields(values, newAttributeSet(target.Attributes()))
	if err != nil {
		return nil, err
	}
	return &EntitySpec{ID: id, Fields: fields, target: target}, nil
}

// Read performs the single-record lookup. Typed lookup outcomes (not found)
// propagate unchanged; any other failure is wrapped as Internal.
func (s *EntitySpec) Read(ctx context.Context) (model.Record, error) {
	record, err := s.target.FindByPK(ctx, s.ID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal("Entity lookup failed", codeEntityLookup, err)
	}
	return record, nil
}
