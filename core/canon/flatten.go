package canon

import (
	"fmt"
	"sort"
)

// Flatten projects a nested value into a mapping from path to leaf value.
// Map keys are descended in sorted order and appended as ".key", list
// elements as "[index]". A scalar top-level value lands at "$". The result
// is deterministic and injective with respect to structural position for
// keys without literal dots; a key containing "." produces the same path
// as the equivalent nesting ({"x.y": 1} collides with {"x": {"y": 1}}).
func Flatten(v any) map[string]any {
	out := make(map[string]any)
	flattenInto(v, "", out)
	return out
}

func flattenInto(v any, prefix string, out map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			flattenInto(t[k], p, out)
		}
	case []any:
		for i, x := range t {
			flattenInto(x, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	default:
		if prefix == "" {
			prefix = "$"
		}
		out[prefix] = v
	}
}

// SortedPaths returns the flattened paths in lexical order, used for
// deterministic diff sampling.
func SortedPaths(flat map[string]any) []string {
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
