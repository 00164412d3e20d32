// ABOUTME: Form session state: durable snapshots of structured shapes.
// ABOUTME: Array and map mutators patch snapshots, preserving unrendered fields.

package form

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// Session owns the mutable state of one open configuration form: the schema
// it was rendered from and a FieldPath -> ShapeState map of durable snapshots
// for every structured shape. Controls for structured shapes are advisory;
// the snapshot is the source of truth consulted at extraction time.
type Session struct {
	PluginID string
	Schema   *schema.Node

	snapshots map[string]*ShapeState
}

// NewSession creates an empty session for one plugin's configuration form.
func NewSession(pluginID string, root *schema.Node) *Session {
	return &Session{
		PluginID:  pluginID,
		Schema:    root,
		snapshots: make(map[string]*ShapeState),
	}
}

// ItemRecord retains an array item's full value, including fields no control
// renders (server-assigned ids and the like). Records are matched by identity
// across removals, never by position.
type ItemRecord struct {
	ID   string
	Data map[string]interface{}
}

// MapEntry is one key/value pair of a dynamic-map shape, in insertion order.
type MapEntry struct {
	Key   string
	Value interface{}
}

// ShapeState is the durable snapshot of one structured shape.
type ShapeState struct {
	Shape   schema.Shape
	Items   []*ItemRecord                     // array-of-objects
	Entries []MapEntry                        // dynamic-map
	Keyed   map[string]map[string]interface{} // keyed-objects
}

// CapacityError signals an insert against a collection at its declared
// maximum. State is left unchanged.
type CapacityError struct {
	Path string
	Max  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s is at its maximum of %d entries", e.Path, e.Max)
}

// Snapshot returns the state recorded for path, or nil.
func (s *Session) Snapshot(path string) *ShapeState {
	return s.snapshots[path]
}

func (s *Session) setSnapshot(path string, st *ShapeState) {
	s.snapshots[path] = st
}

// node resolves path against the session schema.
func (s *Session) node(path string) *schema.Node {
	return schema.Resolve(s.Schema, path)
}

// InsertItem appends a new item built from schema defaults to the
// array-of-objects at path and returns its index.
func (s *Session) InsertItem(path string) (int, error) {
	st, node, err := s.arrayState(path)
	if err != nil {
		return 0, err
	}
	if node.MaxItems != nil && len(st.Items) >= *node.MaxItems {
		return 0, &CapacityError{Path: path, Max: *node.MaxItems}
	}

	data, _ := defaultValue(node.Items).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	st.Items = append(st.Items, &ItemRecord{ID: uuid.NewString(), Data: data})
	return len(st.Items) - 1, nil
}

// RemoveItem deletes the item at index. Subsequent items keep their own
// records; only their rendered paths re-number.
func (s *Session) RemoveItem(path string, index int) error {
	st, _, err := s.arrayState(path)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(st.Items) {
		return fmt.Errorf("%s has no item %d", path, index)
	}
	st.Items = append(st.Items[:index], st.Items[index+1:]...)
	return nil
}

// PatchItem merges a single field edit into the item's retained record.
func (s *Session) PatchItem(path string, index int, key string, value interface{}) error {
	st, node, err := s.arrayState(path)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(st.Items) {
		return fmt.Errorf("%s has no item %d", path, index)
	}

	field := schema.Resolve(node.Items, key)
	setField(st.Items[index].Data, key, coerceControl(field, fmt.Sprint(value)))
	return nil
}

// PutEntry sets key in the dynamic map at path, appending a new entry when
// the key is not present yet.
func (s *Session) PutEntry(path, key string, value interface{}) error {
	st, node, err := s.mapState(path)
	if err != nil {
		return err
	}

	valueNode := schema.Resolve(s.Schema, joinPath(path, key))
	coerced := coerceControl(valueNode, fmt.Sprint(value))

	for i := range st.Entries {
		if st.Entries[i].Key == key {
			st.Entries[i].Value = coerced
			return nil
		}
	}
	if node.MaxProperties != nil && len(st.Entries) >= *node.MaxProperties {
		return &CapacityError{Path: path, Max: *node.MaxProperties}
	}
	st.Entries = append(st.Entries, MapEntry{Key: key, Value: coerced})
	return nil
}

// RenameEntry changes an entry's key in place, keeping its position.
func (s *Session) RenameEntry(path, oldKey, newKey string) error {
	st, _, err := s.mapState(path)
	if err != nil {
		return err
	}
	for i := range st.Entries {
		if st.Entries[i].Key == oldKey {
			st.Entries[i].Key = newKey
			return nil
		}
	}
	return fmt.Errorf("%s has no entry %q", path, oldKey)
}

// DeleteEntry removes key from the dynamic map at path.
func (s *Session) DeleteEntry(path, key string) error {
	st, _, err := s.mapState(path)
	if err != nil {
		return err
	}
	for i := range st.Entries {
		if st.Entries[i].Key == key {
			st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s has no entry %q", path, key)
}

// PatchKeyedField updates one field of one keyed-objects panel. Keys of this
// shape are server-defined and not renamable.
func (s *Session) PatchKeyedField(path, key, field string, value interface{}) error {
	st := s.snapshots[path]
	if st == nil || st.Shape != schema.ShapeKeyedObjects {
		return fmt.Errorf("%s is not a rendered keyed-objects shape", path)
	}
	record, ok := st.Keyed[key]
	if !ok {
		return fmt.Errorf("%s has no entry %q", path, key)
	}

	fieldNode := schema.Resolve(s.Schema, joinPath(joinPath(path, key), field))
	setField(record, field, coerceControl(fieldNode, fmt.Sprint(value)))
	return nil
}

// setField writes a dotted field into a record's nested value tree.
func setField(data map[string]interface{}, key string, value interface{}) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := data[part].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			data[part] = child
		}
		data = child
	}
	data[parts[len(parts)-1]] = value
}

func (s *Session) arrayState(path string) (*ShapeState, *schema.Node, error) {
	node := s.node(path)
	if node == nil || schema.Classify(node) != schema.ShapeArrayOfObjects {
		return nil, nil, fmt.Errorf("%s is not an array-of-objects shape", path)
	}
	st := s.snapshots[path]
	if st == nil {
		st = &ShapeState{Shape: schema.ShapeArrayOfObjects}
		s.snapshots[path] = st
	}
	return st, node, nil
}

func (s *Session) mapState(path string) (*ShapeState, *schema.Node, error) {
	node := s.node(path)
	if node == nil || schema.Classify(node) != schema.ShapeDynamicMap {
		return nil, nil, fmt.Errorf("%s is not a dynamic-map shape", path)
	}
	st := s.snapshots[path]
	if st == nil {
		st = &ShapeState{Shape: schema.ShapeDynamicMap}
		s.snapshots[path] = st
	}
	return st, node, nil
}

// serializeMap collapses entries into a map, duplicate keys last-write-wins.
func (st *ShapeState) serializeMap() map[string]interface{} {
	out := make(map[string]interface{}, len(st.Entries))
	for _, e := range st.Entries {
		out[e.Key] = e.Value
	}
	return out
}

// defaultValue builds a value for a freshly inserted node from its schema.
func defaultValue(n *schema.Node) interface{} {
	if n == nil {
		return nil
	}
	if n.Default != nil {
		return n.Default
	}
	switch n.Type {
	case "object":
		obj := make(map[string]interface{})
		for name, child := range n.Properties {
			obj[name] = defaultValue(child)
		}
		return obj
	case "array":
		return []interface{}{}
	case "boolean":
		return false
	case "integer":
		return 0
	case "number":
		return 0.0
	case "string":
		return ""
	}
	return nil
}
