// ABOUTME: Tests for the seven-way shape classification.
// ABOUTME: Exercises widget precedence and structural inference rules.

package schema

import "testing"

func TestClassify(t *testing.T) {
	objectItems := &Node{
		Type: "object",
		Properties: map[string]*Node{
			"name": {Type: "string"},
		},
	}

	tests := []struct {
		name string
		node *Node
		want Shape
	}{
		{name: "nil node", node: nil, want: ShapeFallback},
		{name: "string", node: &Node{Type: "string"}, want: ShapeScalar},
		{name: "integer", node: &Node{Type: "integer"}, want: ShapeNumber},
		{name: "number", node: &Node{Type: "number"}, want: ShapeNumber},
		{name: "boolean", node: &Node{Type: "boolean"}, want: ShapeBoolean},
		{
			name: "string enum",
			node: &Node{Type: "string", Enum: []interface{}{"a", "b"}},
			want: ShapeEnum,
		},
		{
			name: "integer enum",
			node: &Node{Type: "integer", Enum: []interface{}{float64(1), float64(2)}},
			want: ShapeEnum,
		},
		{
			name: "array of scalars",
			node: &Node{Type: "array", Items: &Node{Type: "string"}},
			want: ShapePlainArray,
		},
		{
			name: "array of objects inferred",
			node: &Node{Type: "array", Items: objectItems},
			want: ShapeArrayOfObjects,
		},
		{
			name: "object with properties",
			node: &Node{Type: "object", Properties: map[string]*Node{"x": {Type: "string"}}},
			want: ShapeObject,
		},
		{
			name: "dynamic map via patternProperties",
			node: &Node{Type: "object", PatternProperties: map[string]*Node{"^.*$": {Type: "string"}}},
			want: ShapeDynamicMap,
		},
		{
			name: "keyed objects via additionalProperties",
			node: &Node{Type: "object", AdditionalProperties: &Additional{Allowed: true, Schema: objectItems}},
			want: ShapeKeyedObjects,
		},
		{
			name: "keyed objects beats patternProperties",
			node: &Node{
				Type:                 "object",
				PatternProperties:    map[string]*Node{"^.*$": {Type: "string"}},
				AdditionalProperties: &Additional{Allowed: true, Schema: objectItems},
			},
			want: ShapeKeyedObjects,
		},
		{
			name: "static properties beat dynamic rules",
			node: &Node{
				Type:              "object",
				Properties:        map[string]*Node{"x": {Type: "string"}},
				PatternProperties: map[string]*Node{"^.*$": {Type: "string"}},
			},
			want: ShapeObject,
		},
		{
			name: "widget overrides inference",
			node: &Node{Type: "array", Items: objectItems, Widget: WidgetPlainArray},
			want: ShapePlainArray,
		},
		{
			name: "checkbox group widget",
			node: &Node{Type: "array", Items: &Node{Type: "string", Enum: []interface{}{"mon", "tue"}}, Widget: WidgetCheckboxGroup},
			want: ShapeCheckboxGroup,
		},
		{
			name: "file reference widget",
			node: &Node{Type: "string", Widget: WidgetFileReference},
			want: ShapeFileReference,
		},
		{
			name: "custom fragment widget",
			node: &Node{Type: "object", Widget: WidgetCustomFragment},
			want: ShapeCustomFragment,
		},
		{
			name: "unknown widget degrades to fallback",
			node: &Node{Type: "string", Widget: "holo-dial"},
			want: ShapeFallback,
		},
		{
			name: "bare object with no rules",
			node: &Node{Type: "object"},
			want: ShapeFallback,
		},
		{name: "untyped node", node: &Node{}, want: ShapeFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.node); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStructuredShapes(t *testing.T) {
	structured := []Shape{ShapeArrayOfObjects, ShapeKeyedObjects, ShapeDynamicMap}
	for _, s := range structured {
		if !s.Structured() {
			t.Errorf("%v should be structured", s)
		}
	}
	flat := []Shape{ShapeScalar, ShapeNumber, ShapeBoolean, ShapeEnum, ShapePlainArray, ShapeCheckboxGroup, ShapeObject, ShapeFileReference, ShapeFallback}
	for _, s := range flat {
		if s.Structured() {
			t.Errorf("%v should not be structured", s)
		}
	}
}
