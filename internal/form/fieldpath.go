// ABOUTME: FieldPath helpers for dotted, bracket-indexed form paths.
// ABOUTME: Folds flat path->value maps back into nested configuration objects.

package form

import (
	"fmt"
	"sort"
	"strings"
)

// joinPath appends a property name to a parent path.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// indexedPath addresses one item of an array node, e.g. feeds[2].
func indexedPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// FoldFlat interprets "." in each key as object descent and builds the nested
// configuration object. Bracketed indices never reach this step: structured
// shapes attach their whole subtree value at their own path.
func FoldFlat(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})

	// Deterministic key order keeps conflicting writes stable.
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segs := strings.Split(key, ".")
		node := out
		for i, seg := range segs {
			if i == len(segs)-1 {
				node[seg] = flat[key]
				break
			}
			child, ok := node[seg].(map[string]interface{})
			if !ok {
				child = make(map[string]interface{})
				node[seg] = child
			}
			node = child
		}
	}
	return out
}
