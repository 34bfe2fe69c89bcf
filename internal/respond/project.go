// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond

import (
	"reflect"
	"strings"
	"time"

	"github.com/taibuivan/restkit/internal/model"
	"github.com/taibuivan/restkit/pkg/fieldmask"
)

// Project recursively reduces a value to the requested field subset.
//
// The selection applies at record boundaries, not to whatever container a
// handler wraps around its records.
//
// Rules:
//
//   - An empty (or nil) mask exports every own, non-private property of a
//     record. Keys with a leading underscore are never exported.
//   - Plain container maps and structs (a list's {count, rows} wrapper) keep
//     every key; the mask travels through them down to the records. A
//     container key named in the mask descends with that sub-selection.
//   - Dates render as their numeric epoch-millisecond value.
//   - A nested [model.Record] without a selection collapses to a minimal
//     {id, type} reference stub instead of expanding fully, preventing
//     unbounded graph expansion by default.
//   - Slices project each element with the same mask.
//
// Projection is idempotent: re-projecting an already projected value with no
// mask exposes exactly the previously selected keys.
func Project(value any, mask fieldmask.Mask) any {
	if record, ok := value.(model.Record); ok {
		// A top-level record is the requested resource itself: expand it.
		return projectRecord(record.Fields(), mask)
	}
	return projectValue(value, mask)
}

func projectValue(value any, mask fieldmask.Mask) any {
	switch v := value.(type) {
	case nil:
		return nil
	case model.Record:
		if mask.Empty() {
			return referenceStub(v)
		}
		return projectRecord(v.Fields(), mask)
	case time.Time:
		return v.UnixMilli()
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UnixMilli()
	case map[string]any:
		return projectWrapper(v, mask)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return projectValue(rv.Elem().Interface(), mask)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = projectValue(rv.Index(i).Interface(), mask)
		}
		return out
	case reflect.Map:
		converted := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			converted[key.String()] = rv.MapIndex(key).Interface()
		}
		return projectWrapper(converted, mask)
	case reflect.Struct:
		return projectWrapper(structFields(rv), mask)
	default:
		return value
	}
}

// projectRecord strictly reduces a record's attributes to the selection. A
// non-empty mask drops every unselected attribute.
func projectRecord(fields map[string]any, mask fieldmask.Mask) map[string]any {
	out := make(map[string]any)
	for key, value := range fields {
		if strings.HasPrefix(key, "_") {
			continue
		}
		sub, selected := mask.Sub(key)
		if !mask.Empty() && !selected {
			continue
		}
		out[key] = projectValue(value, sub)
	}
	return out
}

// projectWrapper passes a container map through untouched, carrying the mask
// down to the records inside it. A key the mask names explicitly descends
// with its sub-selection instead.
func projectWrapper(fields map[string]any, mask fieldmask.Mask) map[string]any {
	out := make(map[string]any)
	for key, value := range fields {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if sub, selected := mask.Sub(key); selected {
			out[key] = projectValue(value, sub)
			continue
		}
		out[key] = projectValue(value, mask)
	}
	return out
}

// referenceStub is the minimal representation of a referenced entity.
func referenceStub(record model.Record) map[string]any {
	return map[string]any{
		"id":   record.PrimaryKey(),
		"type": record.ModelName(),
	}
}

// structFields converts an exported struct into a field map, honoring json
// tags the way encoding/json does for names and "-" omissions.
func structFields(rv reflect.Value) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = rv.Field(i).Interface()
	}
	return out
}
