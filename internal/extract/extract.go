// Package extract centralizes reads from the loosely-typed action context
// map. Upstream data labels the same concept differently across actions
// (url vs trackingUrl vs deliveryUrl), so every consumer goes through the
// ordered-alias lookup here instead of reading the map directly. Absence is
// reported, never silently defaulted.
package extract

import "strings"

// Value looks up key in ctx, then each alias in priority order, and returns
// the first non-empty match. The second return reports whether anything was
// found; a value is never fabricated.
func Value(ctx map[string]string, key string, aliases ...string) (string, bool) {
	if len(ctx) == 0 {
		return "", false
	}
	if v := strings.TrimSpace(ctx[key]); v != "" {
		return v, true
	}
	for _, alias := range aliases {
		if v := strings.TrimSpace(ctx[alias]); v != "" {
			return v, true
		}
	}
	return "", false
}

// Required resolves every required key against ctx, also copying any present
// optional keys. It returns the extracted map and the first required key
// that could not be satisfied (empty string when all were found).
func Required(ctx map[string]string, required []RequiredSpec, optional []string) (map[string]string, string) {
	out := make(map[string]string, len(required)+len(optional))
	for _, spec := range required {
		v, ok := Value(ctx, spec.Key, spec.Aliases...)
		if !ok {
			return nil, spec.Key
		}
		out[spec.Key] = v
	}
	for _, key := range optional {
		if v, ok := Value(ctx, key); ok {
			out[key] = v
		}
	}
	return out, ""
}

// RequiredSpec pairs a canonical key with its ordered aliases.
type RequiredSpec struct {
	Key     string
	Aliases []string
}
