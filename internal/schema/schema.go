// ABOUTME: Configuration schema document model for display plugins.
// ABOUTME: Nodes are loaded from JSON once and treated as immutable afterwards.

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Widget kinds a node may declare to override shape inference.
const (
	WidgetPlainArray     = "plain-array"
	WidgetCheckboxGroup  = "checkbox-group"
	WidgetArrayOfObjects = "array-of-objects"
	WidgetDynamicMap     = "dynamic-map"
	WidgetFileReference  = "file-reference"
	WidgetCustomFragment = "custom-fragment"
)

// Node is one typed description within a plugin configuration schema.
type Node struct {
	Type                 string                 `json:"type,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Default              interface{}            `json:"default,omitempty"`
	Enum                 []interface{}          `json:"enum,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
	MaxProperties        *int                   `json:"maxProperties,omitempty"`
	Items                *Node                  `json:"items,omitempty"`
	Properties           map[string]*Node       `json:"properties,omitempty"`
	PatternProperties    map[string]*Node       `json:"patternProperties,omitempty"`
	AdditionalProperties *Additional            `json:"additionalProperties,omitempty"`
	PropertyOrder        []string               `json:"propertyOrder,omitempty"`
	Widget               string                 `json:"widget,omitempty"`
	WidgetOptions        map[string]interface{} `json:"widgetOptions,omitempty"`
	Secret               bool                   `json:"secret,omitempty"`

	// propSeq preserves the document order of Properties keys, which the
	// json package's map decoding loses.
	propSeq []string
}

// Additional models additionalProperties, which is either a boolean or a
// full schema in the source document.
type Additional struct {
	Allowed bool
	Schema  *Node
}

func (a *Additional) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("true")) {
		a.Allowed = true
		return nil
	}
	if bytes.Equal(trimmed, []byte("false")) {
		a.Allowed = false
		return nil
	}
	n := &Node{}
	if err := json.Unmarshal(data, n); err != nil {
		return fmt.Errorf("additionalProperties must be a boolean or a schema: %w", err)
	}
	a.Allowed = true
	a.Schema = n
	return nil
}

func (a *Additional) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return json.Marshal(a.Schema)
	}
	return json.Marshal(a.Allowed)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Node(p)

	// Re-scan the raw document for the order of the properties keys.
	var raw struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err == nil && len(raw.Properties) > 0 {
		n.propSeq = keyOrder(raw.Properties)
	}
	return nil
}

// Parse decodes a schema document.
func Parse(data []byte) (*Node, error) {
	n := &Node{}
	if err := json.Unmarshal(data, n); err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	return n, nil
}

// OrderedProperties returns the node's property names, propertyOrder first,
// then undeclared members in document order. Governs rendering only.
func (n *Node) OrderedProperties() []string {
	if n == nil || len(n.Properties) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(n.Properties))
	out := make([]string, 0, len(n.Properties))

	for _, name := range n.PropertyOrder {
		if _, ok := n.Properties[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range n.propSeq {
		if _, ok := n.Properties[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	// Nodes built in Go code have no document order; keep them deterministic.
	rest := make([]string, 0)
	for name := range n.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// keyOrder returns the top-level object keys of raw in document order.
func keyOrder(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)

		// Skip the value so nested keys are not collected.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}
