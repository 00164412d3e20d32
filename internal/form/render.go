// ABOUTME: Recursive field renderer: schema node + current value -> Field tree.
// ABOUTME: Captures durable snapshots of structured shapes into the session.

package form

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// Render builds the form's field tree from the session schema and the current
// configuration value. The value is not mutated; structured shapes get their
// durable snapshot captured into the session, unless a snapshot already
// exists from an earlier render (mutator edits survive re-rendering).
func Render(sess *Session, value map[string]interface{}) (*Field, error) {
	if sess == nil || sess.Schema == nil {
		return nil, fmt.Errorf("render needs a session with a schema")
	}
	return renderNode(sess, sess.Schema, value, "", sess.PluginID), nil
}

func renderNode(sess *Session, node *schema.Node, value interface{}, path, label string) *Field {
	if node.Title != "" {
		label = node.Title
	}

	f := &Field{
		Path:  path,
		Shape: schema.Classify(node),
		Node:  node,
		Label: label,
	}

	switch f.Shape {
	case schema.ShapeObject:
		obj, _ := value.(map[string]interface{})
		for _, name := range node.OrderedProperties() {
			child := renderNode(sess, node.Properties[name], obj[name], joinPath(path, name), name)
			f.Children = append(f.Children, child)
		}

	case schema.ShapeBoolean:
		f.Name = path
		f.Checked = truthy(pick(value, node.Default))

	case schema.ShapeEnum:
		f.Name = path
		current := controlString(node, pick(value, node.Default))
		for _, opt := range node.Enum {
			optValue := controlString(node, opt)
			f.Options = append(f.Options, Option{
				Value:    optValue,
				Label:    optValue,
				Selected: optValue == current,
			})
		}

	case schema.ShapeCheckboxGroup:
		f.Name = path
		selected := stringSet(value)
		var options []interface{}
		if node.Items != nil {
			options = node.Items.Enum
		}
		for _, opt := range options {
			optValue := fmt.Sprint(opt)
			f.Options = append(f.Options, Option{
				Value:    optValue,
				Label:    optValue,
				Selected: selected[optValue],
			})
		}

	case schema.ShapePlainArray:
		f.Name = path
		f.Value = joinScalars(pick(value, node.Default))

	case schema.ShapeArrayOfObjects:
		renderArrayOfObjects(sess, node, f, value, path)

	case schema.ShapeKeyedObjects:
		renderKeyedObjects(sess, node, f, value, path)

	case schema.ShapeDynamicMap:
		renderDynamicMap(sess, node, f, value, path)

	case schema.ShapeCustomFragment, schema.ShapeFallback:
		// Raw structural editor: the value passes through as JSON.
		f.Name = path
		raw, err := json.Marshal(pick(value, node.Default))
		if err == nil && string(raw) != "null" {
			f.Value = string(raw)
		}

	default: // scalar, number, file-reference
		f.Name = path
		f.Value = controlString(node, pick(value, node.Default))
	}

	return f
}

func renderArrayOfObjects(sess *Session, node *schema.Node, f *Field, value interface{}, path string) {
	st := sess.Snapshot(path)
	if st == nil {
		st = &ShapeState{Shape: schema.ShapeArrayOfObjects}
		if list, ok := value.([]interface{}); ok {
			for _, item := range list {
				data, _ := item.(map[string]interface{})
				st.Items = append(st.Items, &ItemRecord{ID: uuid.NewString(), Data: copyMap(data)})
			}
		}
		sess.setSnapshot(path, st)
	}

	for i, item := range st.Items {
		itemPath := indexedPath(path, i)
		row := &Field{
			Path:   itemPath,
			Shape:  schema.ShapeObject,
			Node:   node.Items,
			Label:  fmt.Sprintf("%s #%d", f.Label, i+1),
			ItemID: item.ID,
		}
		for _, name := range node.Items.OrderedProperties() {
			child := renderNode(sess, node.Items.Properties[name], item.Data[name], joinPath(itemPath, name), name)
			row.Children = append(row.Children, child)
		}
		f.Children = append(f.Children, row)
	}
}

func renderKeyedObjects(sess *Session, node *schema.Node, f *Field, value interface{}, path string) {
	st := sess.Snapshot(path)
	if st == nil {
		st = &ShapeState{Shape: schema.ShapeKeyedObjects, Keyed: make(map[string]map[string]interface{})}
		if obj, ok := value.(map[string]interface{}); ok {
			for key, item := range obj {
				data, _ := item.(map[string]interface{})
				st.Keyed[key] = copyMap(data)
			}
		}
		sess.setSnapshot(path, st)
	}

	keys := make([]string, 0, len(st.Keyed))
	for key := range st.Keyed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	valueSchema := node.AdditionalProperties.Schema
	for _, key := range keys {
		panel := &Field{
			Path:  joinPath(path, key),
			Shape: schema.ShapeObject,
			Node:  valueSchema,
			Label: key,
			Key:   key,
		}
		for _, name := range valueSchema.OrderedProperties() {
			child := renderNode(sess, valueSchema.Properties[name], st.Keyed[key][name], joinPath(panel.Path, name), name)
			panel.Children = append(panel.Children, child)
		}
		f.Children = append(f.Children, panel)
	}
}

func renderDynamicMap(sess *Session, node *schema.Node, f *Field, value interface{}, path string) {
	st := sess.Snapshot(path)
	if st == nil {
		st = &ShapeState{Shape: schema.ShapeDynamicMap}
		if obj, ok := value.(map[string]interface{}); ok {
			keys := make([]string, 0, len(obj))
			for key := range obj {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				st.Entries = append(st.Entries, MapEntry{Key: key, Value: obj[key]})
			}
		}
		sess.setSnapshot(path, st)
	}

	var valueNode *schema.Node
	for _, child := range node.PatternProperties {
		valueNode = child
		break
	}

	for _, entry := range st.Entries {
		f.Children = append(f.Children, &Field{
			Path:  joinPath(path, entry.Key),
			Shape: schema.ShapeScalar,
			Node:  valueNode,
			Label: entry.Key,
			Key:   entry.Key,
			Value: controlString(valueNode, entry.Value),
		})
	}
}

// pick returns value unless it is nil, then the fallback.
func pick(value, fallback interface{}) interface{} {
	if value == nil {
		return fallback
	}
	return value
}

// controlString formats a value for a text-like control.
func controlString(node *schema.Node, value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if node != nil && node.Type == "integer" {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on" || v == "1"
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

func stringSet(value interface{}) map[string]bool {
	set := make(map[string]bool)
	if list, ok := value.([]interface{}); ok {
		for _, item := range list {
			set[fmt.Sprint(item)] = true
		}
	}
	return set
}

func joinScalars(value interface{}) string {
	list, ok := value.([]interface{})
	if !ok {
		return ""
	}
	out := ""
	for i, item := range list {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprint(item)
	}
	return out
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
