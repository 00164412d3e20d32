// ABOUTME: Round-trip tests for render + extract across every shape.
// ABOUTME: Covers absent-boolean semantics, coercion fallback, and folding.

package form

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// roundTrip renders value under root, simulates an untouched submit, and
// extracts the configuration back.
func roundTrip(t *testing.T, root *schema.Node, value map[string]interface{}) map[string]interface{} {
	t.Helper()

	sess := NewSession("test", root)
	tree, err := Render(sess, value)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got, err := Extract(sess, tree.FormValues())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return got
}

func TestRoundTripShapes(t *testing.T) {
	tests := []struct {
		name  string
		root  *schema.Node
		value map[string]interface{}
		want  map[string]interface{}
	}{
		{
			name: "scalar string",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"city": {Type: "string"},
			}},
			value: map[string]interface{}{"city": "Lisbon"},
			want:  map[string]interface{}{"city": "Lisbon"},
		},
		{
			name: "integer coerced from numeric string",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"brightness": {Type: "integer", Default: 50},
			}},
			value: map[string]interface{}{"brightness": float64(80)},
			want:  map[string]interface{}{"brightness": 80},
		},
		{
			name: "integer default fills absent key",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"brightness": {Type: "integer", Default: 50},
			}},
			value: map[string]interface{}{},
			want:  map[string]interface{}{"brightness": 50},
		},
		{
			name: "float number",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"scale": {Type: "number"},
			}},
			value: map[string]interface{}{"scale": 1.5},
			want:  map[string]interface{}{"scale": 1.5},
		},
		{
			name: "boolean true",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"enabled": {Type: "boolean"},
			}},
			value: map[string]interface{}{"enabled": true},
			want:  map[string]interface{}{"enabled": true},
		},
		{
			name: "enum selection",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"mode": {Type: "string", Enum: []interface{}{"12h", "24h"}},
			}},
			value: map[string]interface{}{"mode": "24h"},
			want:  map[string]interface{}{"mode": "24h"},
		},
		{
			name: "plain array of strings",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"keywords": {Type: "array", Items: &schema.Node{Type: "string"}},
			}},
			value: map[string]interface{}{"keywords": []interface{}{"go", "news"}},
			want:  map[string]interface{}{"keywords": []interface{}{"go", "news"}},
		},
		{
			name: "checkbox group",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"days": {
					Type:   "array",
					Widget: schema.WidgetCheckboxGroup,
					Items:  &schema.Node{Type: "string", Enum: []interface{}{"mon", "tue", "wed"}},
				},
			}},
			value: map[string]interface{}{"days": []interface{}{"mon", "wed"}},
			want:  map[string]interface{}{"days": []interface{}{"mon", "wed"}},
		},
		{
			name: "array of objects",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"feeds": {
					Type: "array",
					Items: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
						"name": {Type: "string"},
						"url":  {Type: "string"},
					}},
				},
			}},
			value: map[string]interface{}{
				"feeds": []interface{}{
					map[string]interface{}{"name": "A", "url": "http://a"},
				},
			},
			want: map[string]interface{}{
				"feeds": []interface{}{
					map[string]interface{}{"name": "A", "url": "http://a"},
				},
			},
		},
		{
			name: "keyed objects",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"categories": {
					Type: "object",
					AdditionalProperties: &schema.Additional{Allowed: true, Schema: &schema.Node{
						Type: "object",
						Properties: map[string]*schema.Node{
							"color": {Type: "string"},
						},
					}},
				},
			}},
			value: map[string]interface{}{
				"categories": map[string]interface{}{
					"sports": map[string]interface{}{"color": "red"},
					"tech":   map[string]interface{}{"color": "blue"},
				},
			},
			want: map[string]interface{}{
				"categories": map[string]interface{}{
					"sports": map[string]interface{}{"color": "red"},
					"tech":   map[string]interface{}{"color": "blue"},
				},
			},
		},
		{
			name: "dynamic map",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"headers": {
					Type:              "object",
					PatternProperties: map[string]*schema.Node{"^[A-Za-z-]+$": {Type: "string"}},
				},
			}},
			value: map[string]interface{}{
				"headers": map[string]interface{}{"X-Api-Key": "abc", "Accept": "text/xml"},
			},
			want: map[string]interface{}{
				"headers": map[string]interface{}{"X-Api-Key": "abc", "Accept": "text/xml"},
			},
		},
		{
			name: "nested object sections",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"display": {Type: "object", Properties: map[string]*schema.Node{
					"rotate":   {Type: "boolean"},
					"interval": {Type: "integer", Default: 10},
				}},
			}},
			value: map[string]interface{}{
				"display": map[string]interface{}{"rotate": true, "interval": float64(15)},
			},
			want: map[string]interface{}{
				"display": map[string]interface{}{"rotate": true, "interval": 15},
			},
		},
		{
			name: "fallback raw editor round-trips JSON",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"extra": {Type: "object"},
			}},
			value: map[string]interface{}{
				"extra": map[string]interface{}{"a": "b", "n": float64(3)},
			},
			want: map[string]interface{}{
				"extra": map[string]interface{}{"a": "b", "n": float64(3)},
			},
		},
		{
			name: "empty value fills defaults",
			root: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"title":   {Type: "string", Default: "Clock"},
				"enabled": {Type: "boolean"},
				"days": {
					Type:   "array",
					Widget: schema.WidgetCheckboxGroup,
					Items:  &schema.Node{Type: "string", Enum: []interface{}{"mon"}},
				},
			}},
			value: nil,
			want: map[string]interface{}{
				"title":   "Clock",
				"enabled": false,
				"days":    []interface{}{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, tt.root, tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestAbsentBooleanExtractsFalse(t *testing.T) {
	root := &schema.Node{Type: "object", Properties: map[string]*schema.Node{
		"enabled": {Type: "boolean"},
		"muted":   {Type: "boolean"},
	}}

	sess := NewSession("test", root)
	if _, err := Render(sess, map[string]interface{}{"enabled": true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Submit only the checked control; the other box never appears in the
	// posted set at all.
	values := url.Values{"enabled": {"on"}}
	got, err := Extract(sess, values)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := map[string]interface{}{"enabled": true, "muted": false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extract = %#v, want %#v", got, want)
	}
}

func TestCoercionFallsBackToDefault(t *testing.T) {
	root := &schema.Node{Type: "object", Properties: map[string]*schema.Node{
		"brightness": {Type: "integer", Default: 50},
		"scale":      {Type: "number", Default: 1.0},
	}}

	sess := NewSession("test", root)
	if _, err := Render(sess, nil); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	values := url.Values{
		"brightness": {"not a number"},
		"scale":      {"wat"},
	}
	got, err := Extract(sess, values)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got["brightness"] != 50 {
		t.Errorf("brightness = %v, want default 50", got["brightness"])
	}
	if got["scale"] != 1.0 {
		t.Errorf("scale = %v, want default 1.0", got["scale"])
	}
}

func TestPlainArraySplitTrimsAndDropsEmpties(t *testing.T) {
	root := &schema.Node{Type: "object", Properties: map[string]*schema.Node{
		"keywords": {Type: "array", Items: &schema.Node{Type: "string"}},
	}}

	sess := NewSession("test", root)
	if _, err := Render(sess, nil); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got, err := Extract(sess, url.Values{"keywords": {" go , , news,"}})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []interface{}{"go", "news"}
	if !reflect.DeepEqual(got["keywords"], want) {
		t.Errorf("keywords = %#v, want %#v", got["keywords"], want)
	}
}

// The end-to-end scenario: render, add an item through the mutator, extract.
func TestAddFeedScenario(t *testing.T) {
	root := &schema.Node{Type: "object", Properties: map[string]*schema.Node{
		"enabled": {Type: "boolean", Default: true},
		"feeds": {
			Type:   "array",
			Widget: schema.WidgetArrayOfObjects,
			Items: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"name": {Type: "string"},
				"url":  {Type: "string"},
			}},
		},
	}}

	value := map[string]interface{}{
		"enabled": true,
		"feeds": []interface{}{
			map[string]interface{}{"name": "A", "url": "http://a"},
		},
	}

	sess := NewSession("news", root)
	tree, err := Render(sess, value)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	idx, err := sess.InsertItem("feeds")
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}
	if idx != 1 {
		t.Fatalf("InsertItem index = %d, want 1", idx)
	}
	if err := sess.PatchItem("feeds", 1, "name", "B"); err != nil {
		t.Fatalf("PatchItem name failed: %v", err)
	}
	if err := sess.PatchItem("feeds", 1, "url", "http://b"); err != nil {
		t.Fatalf("PatchItem url failed: %v", err)
	}

	got, err := Extract(sess, tree.FormValues())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := map[string]interface{}{
		"enabled": true,
		"feeds": []interface{}{
			map[string]interface{}{"name": "A", "url": "http://a"},
			map[string]interface{}{"name": "B", "url": "http://b"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extract = %#v, want %#v", got, want)
	}
}

// Structured shapes nested inside array items render with their own
// snapshots; edits made through their mutators must reach the extracted
// items, not just the top-level record.
func TestNestedMapEditsSurviveExtraction(t *testing.T) {
	root := &schema.Node{Type: "object", Properties: map[string]*schema.Node{
		"feeds": {
			Type:   "array",
			Widget: schema.WidgetArrayOfObjects,
			Items: &schema.Node{Type: "object", Properties: map[string]*schema.Node{
				"url": {Type: "string"},
				"headers": {
					Type:              "object",
					PatternProperties: map[string]*schema.Node{"^[A-Za-z-]+$": {Type: "string"}},
				},
			}},
		},
	}}

	sess := NewSession("news", root)
	tree, err := Render(sess, map[string]interface{}{
		"feeds": []interface{}{
			map[string]interface{}{
				"url":     "http://a",
				"headers": map[string]interface{}{"Accept": "text/xml"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if err := sess.PutEntry("feeds[0].headers", "X-New", "v"); err != nil {
		t.Fatalf("PutEntry failed: %v", err)
	}

	got, err := Extract(sess, tree.FormValues())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	feed := got["feeds"].([]interface{})[0].(map[string]interface{})
	if feed["url"] != "http://a" {
		t.Errorf("url = %v", feed["url"])
	}
	want := map[string]interface{}{"Accept": "text/xml", "X-New": "v"}
	if !reflect.DeepEqual(feed["headers"], want) {
		t.Errorf("headers = %#v, want %#v", feed["headers"], want)
	}
}

func TestFoldFlat(t *testing.T) {
	flat := map[string]interface{}{
		"a.b.c": 1,
		"a.b.d": 2,
		"a.e":   "x",
		"top":   true,
	}

	got := FoldFlat(flat)
	want := map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{"c": 1, "d": 2},
			"e": "x",
		},
		"top": true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FoldFlat = %#v, want %#v", got, want)
	}
}
