// ABOUTME: Shape classification for schema nodes.
// ABOUTME: Single source of truth shared by the form renderer and extractor.

package schema

// Shape is the rendering/extraction category of a node.
type Shape int

const (
	ShapeScalar         Shape = iota // free-text input
	ShapeNumber                      // integer or float input
	ShapeBoolean                     // checkbox
	ShapeEnum                        // select
	ShapePlainArray                  // comma-separated scalar list
	ShapeCheckboxGroup               // one checkbox per enum option
	ShapeArrayOfObjects              // repeating sub-record rows
	ShapeKeyedObjects                // arbitrary keys, object values, keys not renamable
	ShapeDynamicMap                  // arbitrary keys, scalar values, keys editable
	ShapeObject                      // static properties, nested section
	ShapeFileReference               // uploaded asset path
	ShapeCustomFragment              // plugin-supplied fragment, value passed through
	ShapeFallback                    // raw JSON editor
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeNumber:
		return "number"
	case ShapeBoolean:
		return "boolean"
	case ShapeEnum:
		return "enum"
	case ShapePlainArray:
		return "plain-array"
	case ShapeCheckboxGroup:
		return "checkbox-group"
	case ShapeArrayOfObjects:
		return "array-of-objects"
	case ShapeKeyedObjects:
		return "keyed-objects"
	case ShapeDynamicMap:
		return "dynamic-map"
	case ShapeObject:
		return "object"
	case ShapeFileReference:
		return "file-reference"
	case ShapeCustomFragment:
		return "custom-fragment"
	default:
		return "fallback"
	}
}

// Structured reports whether the shape keeps a durable snapshot in the form
// session instead of being read back from individual controls.
func (s Shape) Structured() bool {
	switch s {
	case ShapeArrayOfObjects, ShapeKeyedObjects, ShapeDynamicMap:
		return true
	}
	return false
}

// Classify maps a node to its shape. Dispatch precedence: explicit widget
// first, then inferred structure, then plain type.
func Classify(n *Node) Shape {
	if n == nil {
		return ShapeFallback
	}

	if n.Widget != "" {
		switch n.Widget {
		case WidgetPlainArray:
			return ShapePlainArray
		case WidgetCheckboxGroup:
			return ShapeCheckboxGroup
		case WidgetArrayOfObjects:
			return ShapeArrayOfObjects
		case WidgetDynamicMap:
			return ShapeDynamicMap
		case WidgetFileReference:
			return ShapeFileReference
		case WidgetCustomFragment:
			return ShapeCustomFragment
		default:
			// Unknown widget names don't match any dispatch rule.
			return ShapeFallback
		}
	}

	switch n.Type {
	case "array":
		if n.Items != nil && n.Items.Type == "object" && len(n.Items.Properties) > 0 {
			return ShapeArrayOfObjects
		}
		return ShapePlainArray

	case "object":
		if len(n.Properties) == 0 {
			if n.AdditionalProperties != nil && n.AdditionalProperties.Schema != nil &&
				n.AdditionalProperties.Schema.Type == "object" {
				return ShapeKeyedObjects
			}
			if len(n.PatternProperties) > 0 {
				return ShapeDynamicMap
			}
			return ShapeFallback
		}
		return ShapeObject

	case "boolean":
		return ShapeBoolean

	case "integer", "number":
		if len(n.Enum) > 0 {
			return ShapeEnum
		}
		return ShapeNumber

	case "string":
		if len(n.Enum) > 0 {
			return ShapeEnum
		}
		return ShapeScalar
	}

	if len(n.Enum) > 0 {
		return ShapeEnum
	}
	return ShapeFallback
}
