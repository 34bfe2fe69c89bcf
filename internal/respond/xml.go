// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// xmlHeader precedes every XML response body.
const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// MarshalXML renders a value as an XML document rooted at <response>.
//
// Mapping rules:
//
//   - Each map key becomes an element of the same name.
//   - Array entries become repeated <item> elements.
//   - Empty composite values render as empty elements.
//   - Scalar text is entity-escaped.
//
// Keys are emitted in sorted order so output is deterministic.
func MarshalXML(value any) string {
	return xmlHeader + "<response>" + xmlValue(value, 1) + "</response>"
}

func xmlValue(value any, level int) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return fmt.Sprint(v.UnixMilli())
	case string:
		return xmlEscape(v)
	case map[string]any:
		return xmlMap(v, level)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return xmlValue(rv.Elem().Interface(), level)
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return ""
		}
		parts := []string{""}
		for i := range rv.Len() {
			parts = append(parts, "<item>"+xmlValue(rv.Index(i).Interface(), level+1)+"</item>")
		}
		return xmlJoin(parts, level)
	case reflect.Map:
		converted := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			converted[key.String()] = rv.MapIndex(key).Interface()
		}
		return xmlMap(converted, level)
	case reflect.Struct:
		return xmlMap(structFields(rv), level)
	default:
		return xmlEscape(fmt.Sprint(value))
	}
}

func xmlMap(fields map[string]any, level int) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := []string{""}
	for _, key := range keys {
		parts = append(parts, "<"+key+">"+xmlValue(fields[key], level+1)+"</"+key+">")
	}
	return xmlJoin(parts, level)
}

// xmlJoin indents child elements one tab per nesting level, closing the
// parent element back at the outer level.
func xmlJoin(parts []string, level int) string {
	return strings.Join(parts, "\n"+strings.Repeat("\t", level)) +
		"\n" + strings.Repeat("\t", level-1)
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}
