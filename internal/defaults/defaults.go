// Package defaults implements the layered defaults cascade applied to raw
// ad definitions. Each layer only fills gaps in the accumulating result;
// merging never fails and is idempotent.
package defaults

// Layer is one ordered source of fallback values. Override decides whether a
// value already present in the target may still be replaced (e.g. empty
// strings). Ignore excludes a field from the layer entirely. Both receive the
// dotted field path. Nil predicates mean "never".
type Layer struct {
	Values   map[string]any
	Override func(path string, current any) bool
	Ignore   func(path string, value any) bool
}

// OverrideEmptyString reports whether the current value is the empty string.
// Used by the ad-defaults layer so users can blank out a field and still
// receive the configured default.
func OverrideEmptyString(_ string, current any) bool {
	s, ok := current.(string)
	return ok && s == ""
}

// IgnoreField returns an ignore predicate matching exactly one field path.
func IgnoreField(name string) func(string, any) bool {
	return func(path string, _ any) bool { return path == name }
}

// Merge applies each layer in order to target and returns target. Nested
// mappings are merged recursively; scalars and sequences are copied only when
// missing (or when the layer's override predicate allows replacement).
func Merge(target map[string]any, layers ...Layer) map[string]any {
	if target == nil {
		target = map[string]any{}
	}
	for _, l := range layers {
		mergeLayer(target, l.Values, "", l)
	}
	return target
}

func mergeLayer(dst, src map[string]any, prefix string, l Layer) {
	for k, v := range src {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if l.Ignore != nil && l.Ignore(path, v) {
			continue
		}
		cur, ok := dst[k]
		if ok && cur != nil {
			if cm, isMap := cur.(map[string]any); isMap {
				if vm, srcIsMap := v.(map[string]any); srcIsMap {
					mergeLayer(cm, vm, path, l)
					continue
				}
			}
			if l.Override == nil || !l.Override(path, cur) {
				continue
			}
		}
		dst[k] = deepCopy(v)
	}
}

// deepCopy guards against aliasing between the raw definition and layer
// sources; a resolved ad must never share mutable state with the layers.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// Copy returns a deep copy of m. Used to detach the resolved view of an ad
// from its raw, round-tripped form.
func Copy(m map[string]any) map[string]any {
	return deepCopy(m).(map[string]any)
}
