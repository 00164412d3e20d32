// ABOUTME: Field tree produced by the renderer, one node per control or group.
// ABOUTME: FormValues simulates an untouched submit for round-trip testing.

package form

import (
	"net/url"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

// Option is one choice of an enum or checkbox-group control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Field is one node of a rendered form: a leaf control, or a container whose
// children were produced by re-entering the shape dispatch.
type Field struct {
	Path    string
	Name    string // submitted control name; empty for containers
	Shape   schema.Shape
	Node    *schema.Node
	Label   string
	Value   string // current control value in string form
	Checked bool
	Options []Option
	ItemID  string // array row identity, carried into the markup
	Key     string // entry key for dynamic-map and keyed-objects children

	Children []*Field
}

// FormValues walks the tree and builds the url.Values an untouched submit
// would post. Unchecked booleans contribute nothing, matching HTML form
// semantics; structured shapes contribute nothing because their snapshots
// live in the session.
func (f *Field) FormValues() url.Values {
	values := make(url.Values)
	f.appendValues(values, false)
	return values
}

func (f *Field) appendValues(values url.Values, insideStructured bool) {
	structured := insideStructured || f.Shape.Structured()

	if f.Name != "" && !structured {
		switch f.Shape {
		case schema.ShapeBoolean:
			if f.Checked {
				values.Add(f.Name, "on")
			}
		case schema.ShapeEnum:
			for _, opt := range f.Options {
				if opt.Selected {
					values.Add(f.Name, opt.Value)
				}
			}
		case schema.ShapeCheckboxGroup:
			for _, opt := range f.Options {
				if opt.Selected {
					values.Add(f.Name, opt.Value)
				}
			}
		default:
			values.Add(f.Name, f.Value)
		}
	}

	for _, child := range f.Children {
		child.appendValues(values, structured)
	}
}

// Find returns the descendant field at path, or nil.
func (f *Field) Find(path string) *Field {
	if f.Path == path {
		return f
	}
	for _, child := range f.Children {
		if got := child.Find(path); got != nil {
			return got
		}
	}
	return nil
}
