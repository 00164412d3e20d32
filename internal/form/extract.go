// ABOUTME: Value extractor: submitted controls + session snapshots -> config.
// ABOUTME: Schema-driven coercion; absent booleans extract as false.

package form

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// Extract recovers the nested configuration object from a submitted form.
// Two channels are honored: directly-named controls in values, and the
// session's durable snapshots, which are authoritative for structured shapes
// regardless of any individually-named sub-controls in the same subtree.
func Extract(sess *Session, values url.Values) (map[string]interface{}, error) {
	if sess == nil || sess.Schema == nil {
		return nil, nil
	}
	flat := make(map[string]interface{})
	collect(sess, sess.Schema, "", values, flat)
	return FoldFlat(flat), nil
}

func collect(sess *Session, node *schema.Node, path string, values url.Values, flat map[string]interface{}) {
	switch shape := schema.Classify(node); shape {
	case schema.ShapeObject:
		for _, name := range node.OrderedProperties() {
			collect(sess, node.Properties[name], joinPath(path, name), values, flat)
		}

	case schema.ShapeArrayOfObjects, schema.ShapeKeyedObjects, schema.ShapeDynamicMap:
		if v, ok := structuredValue(sess, node, path); ok {
			flat[path] = v
		}

	case schema.ShapeBoolean:
		// Every declared boolean leaf yields a value: an unchecked box is
		// simply absent from the submitted set, and absence means false.
		_, present := values[path]
		flat[path] = present && truthy(values.Get(path))

	case schema.ShapeCheckboxGroup:
		list := make([]interface{}, 0, len(values[path]))
		for _, v := range values[path] {
			list = append(list, v)
		}
		flat[path] = list

	case schema.ShapePlainArray:
		raw, present := values[path]
		if !present {
			return
		}
		flat[path] = splitScalars(node, raw[0])

	case schema.ShapeCustomFragment, schema.ShapeFallback:
		raw, present := values[path]
		if !present {
			return
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(raw[0]), &parsed); err != nil {
			if node.Default != nil {
				flat[path] = node.Default
			}
			return
		}
		flat[path] = parsed

	default: // scalar, number, enum, file-reference
		raw, present := values[path]
		if !present {
			return
		}
		flat[path] = coerceControl(node, raw[0])
	}
}

// structuredValue serializes the snapshot at path. Items and panels can hold
// structured shapes of their own, rendered with snapshots at the indexed
// child paths; those snapshots are folded in recursively so edits made
// through nested mutators survive extraction.
func structuredValue(sess *Session, node *schema.Node, path string) (interface{}, bool) {
	st := sess.Snapshot(path)
	if st == nil {
		return nil, false
	}

	switch st.Shape {
	case schema.ShapeArrayOfObjects:
		var itemNode *schema.Node
		if node != nil {
			itemNode = node.Items
		}
		items := make([]interface{}, 0, len(st.Items))
		for i, item := range st.Items {
			items = append(items, overlaySnapshots(sess, itemNode, item.Data, indexedPath(path, i)))
		}
		return items, true

	case schema.ShapeKeyedObjects:
		var valueNode *schema.Node
		if node != nil && node.AdditionalProperties != nil {
			valueNode = node.AdditionalProperties.Schema
		}
		out := make(map[string]interface{}, len(st.Keyed))
		for key, record := range st.Keyed {
			out[key] = overlaySnapshots(sess, valueNode, record, joinPath(path, key))
		}
		return out, true

	case schema.ShapeDynamicMap:
		return st.serializeMap(), true
	}
	return nil, false
}

// overlaySnapshots copies one item or panel record and replaces the fields
// whose shapes carry their own snapshot with that snapshot's value.
func overlaySnapshots(sess *Session, node *schema.Node, data map[string]interface{}, base string) map[string]interface{} {
	out := copyMap(data)
	if node == nil {
		return out
	}
	for name, child := range node.Properties {
		childPath := joinPath(base, name)
		switch schema.Classify(child) {
		case schema.ShapeArrayOfObjects, schema.ShapeKeyedObjects, schema.ShapeDynamicMap:
			if v, ok := structuredValue(sess, child, childPath); ok {
				out[name] = v
			}
		case schema.ShapeObject:
			sub, haveSub := out[name].(map[string]interface{})
			merged := overlaySnapshots(sess, child, sub, childPath)
			if haveSub || len(merged) > 0 {
				out[name] = merged
			}
		}
	}
	return out
}

// coerceControl converts a submitted control string to the node's declared
// type. Parse failures fall back to the schema default, never an error.
func coerceControl(node *schema.Node, raw string) interface{} {
	if node == nil {
		return raw
	}
	switch node.Type {
	case "integer":
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return defaultInt(node)
		}
		return n
	case "number":
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return defaultFloat(node)
		}
		return f
	case "boolean":
		return truthy(raw)
	case "array":
		return splitScalars(node, raw)
	}
	return raw
}

// splitScalars parses a comma-separated plain-array control: entries trimmed,
// empty entries dropped, each coerced by the items schema.
func splitScalars(node *schema.Node, raw string) []interface{} {
	var items *schema.Node
	if node != nil {
		items = node.Items
	}

	out := make([]interface{}, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, coerceControl(items, part))
	}
	return out
}

func defaultInt(node *schema.Node) int {
	if f, ok := node.Default.(float64); ok {
		return int(f)
	}
	if n, ok := node.Default.(int); ok {
		return n
	}
	return 0
}

func defaultFloat(node *schema.Node) float64 {
	if f, ok := node.Default.(float64); ok {
		return f
	}
	if n, ok := node.Default.(int); ok {
		return float64(n)
	}
	return 0
}
