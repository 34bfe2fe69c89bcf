// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package filter compiles HTTP query strings into structured, validated
filter/sort/pagination specifications.

Query string grammar (all keys optional):

  - limit: result-set size, default 10, range [1,200].
    Example: ?limit=25
  - offset: starting position, range [0,10000].
    Example: ?offset=50&limit=25
  - marker: opaque cursor for large datasets, mutually exclusive with
    offset and order.
    Example: ?limit=10&marker=1565145
  - fields: projection list with dot-notation for nested sub-selection.
    Example: ?fields=title,description,author.name
  - filters: list of named pre-defined filter references.
    Example: ?filters=by-cat-drama,top-sellers
  - order: columns to sort, syntax order=(column[:asc|desc])+.
    Example: ?order=age:desc,name:asc results in ORDER BY age DESC, name ASC
  - custom criteria: $column=operator:value, every criterion combined with
    AND. The $ prefix distinguishes filtered columns from request options.
    Examples: ?$age=gt:6 means age > 6, ?$age=in:6,9,10 means age IN (6,9,10)

Nested AND/OR grouping is not supported: the criteria model is a flat
conjunction only.

Every referenced field is validated against the model's declared attribute
set at compile time, turning malformed requests into immediate 400-class
errors instead of opaque downstream storage errors.
*/
package filter

import (
	"slices"
	"strings"

	"github.com/taibuivan/restkit/internal/platform/apperr"
)

// Stable error codes of the filtering module.
const (
	codeLimitFormat    = 2410
	codeLimitRange     = 2411
	codeOffsetFormat   = 2420
	codeOffsetRange    = 2421
	codeMarkerOffset   = 2422
	codeFieldDuplicate = 2430
	codeFieldUnknown   = 2431
	codeFilterDup      = 2440
	codeMarkerOrder    = 2450
	codeOrderUnknown   = 2451
	codeOrderDirection = 2452
	codeCriterionField = 2460
	codeCriterionOp    = 2461
	codeEntityID       = 2470
	codeEntityLookup   = 2570
)

// Bounds of the pagination window.
const (
	DefaultLimit = 10
	MaxLimit     = 200
	MaxOffset    = 10000
)

// operators is the supported comparison-operator set for $field criteria.
var operators = []string{"eq", "ne", "gt", "gte", "lt", "lte", "in", "notin", "like"}

// IsOperator reports whether op is a member of the supported operator set.
func IsOperator(op string) bool {
	return slices.Contains(operators, op)
}

// attributeSet indexes a model's declared attributes for O(1) validation.
type attributeSet map[string]struct{}

func newAttributeSet(attributes []string) attributeSet {
	set := make(attributeSet, len(attributes))
	for _, attr := range attributes {
		set[attr] = struct{}{}
	}
	return set
}

func (s attributeSet) has(field string) bool {
	_, ok := s[field]
	return ok
}

// topLevel returns the first segment of a dot-notation projection path.
func topLevel(path string) string {
	field, _, _ := strings.Cut(path, ".")
	return field
}

// unknownField builds the shared unknown-attribute error.
func unknownField(field string, code int) *apperr.AppError {
	return apperr.BadArgument("Unknown field '"+field+"'", code)
}
