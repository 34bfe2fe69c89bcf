// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/internal/platform/apperr"
	"github.com/taibuivan/restkit/pkg/fieldmask"
	"github.com/taibuivan/restkit/pkg/query"
)

// ListSpec is a compiled list-scoped filtering request.
//
// Construction validates every referenced field against the model's declared
// attribute set, so a ListSpec in hand is safe to execute.
type ListSpec struct {
	// Limit is the result-set size, always within [1, MaxLimit].
	Limit int
	// Offset is the starting position, nil when not requested.
	Offset *int
	// Marker is the opaque pagination cursor, empty when not requested.
	Marker string
	// Order lists the validated ordering terms.
	Order []model.OrderTerm
	// Filters references named pre-defined filters, deduplicated.
	Filters []string
	// Criteria maps field to operator to comparison value.
	Criteria map[string]map[string]any
	// Fields is the requested output projection.
	Fields fieldmask.Mask

	target model.Model
}

// List compiles query parameters into a [ListSpec] validated against the
// model's attribute set.
func List(target model.Model, values url.Values) (*ListSpec, error) {
	attrs := newAttributeSet(target.Attributes())
	spec := &ListSpec{
		Limit:    DefaultLimit,
		Criteria: make(map[string]map[string]any),
		target:   target,
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.BadFormat("Bad limit format, expecting a number", codeLimitFormat)
		}
		if limit < 1 || limit > MaxLimit {
			return nil, apperr.BadFormat("Bad limit value, expecting between 1 and 200", codeLimitRange)
		}
		spec.Limit = limit
	}

	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return nil, apperr.BadFormat("Bad offset format, expecting a number", codeOffsetFormat)
		}
		if offset < 0 || offset > MaxOffset {
			return nil, apperr.BadFormat("Bad offset value, expecting between 0 and 10 000", codeOffsetRange)
		}
		spec.Offset = &offset
	}

	if marker := values.Get("marker"); marker != "" {
		if spec.Offset != nil {
			return nil, apperr.Conflicts("Marker and offset are mutually exclusive", codeMarkerOffset)
		}
		spec.Marker = marker
	}

	for _, name := range query.StringSlice(values.Get("filters")) {
		if slices.Contains(spec.Filters, name) {
			return nil, apperr.BadArgument("Duplicated filter '"+name+"'", codeFilterDup)
		}
		spec.Filters = append(spec.Filters, name)
	}

	for _, term := range query.StringSlice(values.Get("order")) {
		field, direction, hasDirection := strings.Cut(term, ":")
		if !attrs.has(field) {
			return nil, unknownField(field, codeOrderUnknown)
		}
		if !hasDirection {
			direction = "asc"
		}
		if direction != "asc" && direction != "desc" {
			return nil, apperr.BadFormat("Bad order direction, expecting asc or desc", codeOrderDirection)
		}
		spec.Order = append(spec.Order, model.OrderTerm{
			Field:     field,
			Direction: strings.ToUpper(direction),
		})
	}
	if spec.Marker != "" && len(spec.Order) > 0 {
		return nil, apperr.Conflicts("Marker and order are mutually exclusive", codeMarkerOrder)
	}

	fields, err := parseFields(values, attrs)
	if err != nil {
		return nil, err
	}
	spec.Fields = fields

	for key := range values {
		if !strings.HasPrefix(key, "$") {
			continue
		}
		field := key[1:]
		if !attrs.has(field) {
			return nil, unknownField(field, codeCriterionField)
		}
		if err := spec.setCriterion(field, values.Get(key)); err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// setCriterion parses "operator:value" and registers the criterion.
func (s *ListSpec) setCriterion(field, raw string) error {
	op, value, hasValue := strings.Cut(raw, ":")
	if !hasValue || !IsOperator(op) {
		return apperr.BadArgument("Unknown operator '"+op+"'", codeCriterionOp)
	}
	var compare any = value
	if op == "in" || op == "notin" {
		compare = query.StringSlice(value)
	}
	s.SetCriterion(field, op, compare)
	return nil
}

// SetCriterion adds a programmatic criterion, as named pre-filters and
// handlers do. The field must exist on the model and the operator must be a
// member of the supported set.
func (s *ListSpec) SetCriterion(field, op string, value any) {
	criteria, ok := s.Criteria[field]
	if !ok {
		criteria = make(map[string]any)
		s.Criteria[field] = criteria
	}
	criteria[op] = value
}

// QueryOptions produces the normalized, engine-agnostic query shape.
func (s *ListSpec) QueryOptions() model.QueryOptions {
	return model.QueryOptions{
		Where:  s.Criteria,
		Limit:  s.Limit,
		Offset: s.Offset,
		Marker: s.Marker,
		Order:  s.Order,
	}
}

// Find delegates to the model's count-and-fetch capability.
func (s *ListSpec) Find(ctx context.Context) ([]model.Record, int, error) {
	return s.target.FindAndCountAll(ctx, s.QueryOptions())
}

// parseFields compiles the projection list, rejecting duplicates and fields
// absent from the attribute set.
func parseFields(values url.Values, attrs attributeSet) (fieldmask.Mask, error) {
	fields := query.StringSlice(values.Get("fields"))
	if len(fields) == 0 {
		return nil, nil
	}
	mask := fieldmask.New()
	for _, path := range fields {
		if !attrs.has(topLevel(path)) {
			return nil, unknownField(topLevel(path), codeFieldUnknown)
		}
		if !mask.Add(path) {
			return nil, apperr.BadArgument("Duplicated field '"+path+"'", codeFieldDuplicate)
		}
	}
	return mask, nil
}
