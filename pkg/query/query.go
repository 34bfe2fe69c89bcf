// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query holds small helpers for parsing URL query parameter values.
package query

import "strings"

// StringSlice splits a comma-separated query value into a trimmed slice.
// Empty entries are dropped, so "a,,b" and " a , b " both yield ["a", "b"].
// The filter compiler relies on this shape for the filters, order, fields,
// and in/notin criterion lists.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
