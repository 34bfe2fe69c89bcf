// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package fieldmask models requested output-field subsets for partial responses.

A mask is a tree of field names built from dot-notation paths. The path
"author.name" selects the "name" field inside the "author" field; the bare
path "title" selects the whole "title" value.

Masks are produced by the query filter compiler and consumed by the response
serializer when projecting values.
*/
package fieldmask

import "strings"

// Mask is a tree of selected fields. A nil sub-mask means the field is
// selected in full; a non-nil sub-mask restricts the nested selection.
type Mask map[string]Mask

// New returns an empty mask.
func New() Mask {
	return make(Mask)
}

// Add inserts a dot-notation path into the mask.
//
// It reports false when the exact bare field is already selected as a leaf,
// which callers treat as a duplicate-field request error. Nested additions
// under an existing full selection are absorbed silently since the full
// selection already covers them.
func (m Mask) Add(path string) bool {
	field, rest, nested := strings.Cut(path, ".")
	sub, exists := m[field]
	if !nested {
		if exists && sub == nil {
			return false
		}
		m[field] = nil
		return true
	}
	if exists && sub == nil {
		// Full selection already covers any nested path.
		return true
	}
	if sub == nil {
		sub = make(Mask)
		m[field] = sub
	}
	return sub.Add(rest)
}

// Has reports whether the top-level field is selected, fully or partially.
func (m Mask) Has(field string) bool {
	_, ok := m[field]
	return ok
}

// Sub returns the nested mask for a selected field. The result is nil for a
// full selection; the second return value reports whether the field is
// selected at all.
func (m Mask) Sub(field string) (Mask, bool) {
	sub, ok := m[field]
	return sub, ok
}

// Fields returns the selected top-level field names, in no particular order.
func (m Mask) Fields() []string {
	out := make([]string, 0, len(m))
	for field := range m {
		out = append(out, field)
	}
	return out
}

// Empty reports whether the mask selects nothing, which serializers interpret
// as "export everything".
func (m Mask) Empty() bool {
	return len(m) == 0
}
