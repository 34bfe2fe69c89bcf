// Copyright (c) 2026 Restkit. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rest

import (
	"fmt"
	"sort"
)

// Help declares a self-describing endpoint exposing the registered API
// structure: every endpoint, its actions per verb and version, parameter
// declarations, and protection status. The caller's meta document (service
// name, version, links) is merged on top.
//
// The description is assembled at request time, so actions declared after
// Help still appear.
func (r *Registry) Help(meta map[string]any) *Action {
	handler := func(c *Ctx) Outcome {
		doc := map[string]any{
			"endpoints": r.describe(),
		}
		return Value(mergeDeep(doc, meta))
	}
	return r.Endpoint("help").
		Get(handler).
		Describe("Describes the registered API structure")
}

func (r *Registry) describe() map[string]any {
	endpoints := make(map[string]any, len(r.endpoints))
	for _, name := range r.endpointNames() {
		endpoint := r.endpoints[name]
		actions := make(map[string]any)
		for verb, versions := range endpoint.actions {
			for version, action := range versions {
				key := fmt.Sprintf("%s v%d", verb, version)
				actions[key] = describeAction(action)
			}
		}
		endpoints[name] = map[string]any{
			"actions": actions,
		}
	}
	return endpoints
}

func describeAction(action *Action) map[string]any {
	doc := map[string]any{
		"description": action.description,
		"protected":   action.auth,
	}
	if len(action.params) == 0 {
		return doc
	}

	names := make([]string, 0, len(action.params))
	for name := range action.params {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make(map[string]any, len(names))
	for _, name := range names {
		spec := action.params[name]
		params[name] = map[string]any{
			"type":        string(spec.Kind),
			"description": spec.Description,
			"required":    spec.Required,
		}
	}
	doc["params"] = params
	return doc
}

// mergeDeep overlays src onto dst, descending into nested maps. Scalar
// conflicts resolve in favor of src.
func mergeDeep(dst, src map[string]any) map[string]any {
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = mergeDeep(dstMap, srcMap)
				continue
			}
		}
		dst[key] = value
	}
	return dst
}
