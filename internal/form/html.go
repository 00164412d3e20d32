// ABOUTME: HTML generation for rendered field trees.
// ABOUTME: Semantic markup with Tailwind classes and HTMX mutator endpoints.

package form

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/pixeldeck/pixeldeck/internal/schema"
)

const (
	inputClass  = "mt-1 block w-full rounded border-gray-300 shadow-sm px-3 py-2 border"
	labelClass  = "block text-sm font-medium text-gray-700"
	buttonClass = "px-2 py-1 text-sm bg-gray-200 text-gray-700 rounded hover:bg-gray-300"
	removeClass = "px-2 py-1 text-sm text-red-600 hover:text-red-900"
)

// RenderHTML generates the form markup for a field tree. actionBase is the
// URL prefix of the session's mutator endpoints, e.g. /plugins/clock/config.
func RenderHTML(f *Field, actionBase string) string {
	var sb strings.Builder
	writeField(&sb, f, actionBase, true, nil)
	return sb.String()
}

// binding wires a control inside an array row or keyed panel to its patch
// endpoint, so an edit reaches the session snapshot as soon as it happens.
// field accumulates the dotted field name relative to the container item.
type binding struct {
	base   string
	action string
	path   string
	k, v   string
	field  string
}

func (b *binding) child(name string) *binding {
	c := *b
	if c.field == "" {
		c.field = name
	} else {
		c.field += "." + name
	}
	return &c
}

// attrs returns the hx attributes posting the control's edit to its patch
// endpoint on change. Empty outside a bound container.
func (b *binding) attrs() string {
	if b == nil {
		return ""
	}
	u := mutatorURL(b.base, b.action, b.path, b.k, b.v, "field", b.field)
	return fmt.Sprintf(` hx-post="%s" hx-trigger="change" hx-target="closest form"`, html.EscapeString(u))
}

func writeField(sb *strings.Builder, f *Field, base string, root bool, bind *binding) {
	switch f.Shape {
	case schema.ShapeObject:
		if root {
			sb.WriteString(`<div class="space-y-4">`)
			writeChildren(sb, f, base, bind)
			sb.WriteString(`</div>`)
			return
		}
		// Nested sections are collapsed by default.
		sb.WriteString(`<details class="border rounded p-3">`)
		sb.WriteString(fmt.Sprintf(`<summary class="text-sm font-medium cursor-pointer">%s</summary>`, html.EscapeString(f.Label)))
		sb.WriteString(`<div class="mt-2 space-y-3 pl-3">`)
		writeChildren(sb, f, base, bind)
		sb.WriteString(`</div></details>`)

	case schema.ShapeBoolean:
		checked := ""
		if f.Checked {
			checked = " checked"
		}
		sb.WriteString(`<div>`)
		sb.WriteString(fmt.Sprintf(`<label class="inline-flex items-center gap-2 text-sm text-gray-700"><input type="checkbox" name="%s"%s%s class="rounded border-gray-300">%s</label>`,
			html.EscapeString(f.Name), checked, bind.attrs(), html.EscapeString(f.Label)))
		sb.WriteString(`</div>`)

	case schema.ShapeEnum:
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		sb.WriteString(fmt.Sprintf(`<select name="%s"%s class="%s">`, html.EscapeString(f.Name), bind.attrs(), inputClass))
		for _, opt := range f.Options {
			selected := ""
			if opt.Selected {
				selected = " selected"
			}
			sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
				html.EscapeString(opt.Value), selected, html.EscapeString(opt.Label)))
		}
		sb.WriteString(`</select></div>`)

	case schema.ShapeCheckboxGroup:
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		sb.WriteString(`<div class="mt-1 flex flex-wrap gap-3">`)
		for _, opt := range f.Options {
			checked := ""
			if opt.Selected {
				checked = " checked"
			}
			sb.WriteString(fmt.Sprintf(`<label class="inline-flex items-center gap-1 text-sm"><input type="checkbox" name="%s" value="%s"%s%s class="rounded border-gray-300">%s</label>`,
				html.EscapeString(f.Name), html.EscapeString(opt.Value), checked, bind.attrs(), html.EscapeString(opt.Label)))
		}
		sb.WriteString(`</div></div>`)

	case schema.ShapeNumber:
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		attrs := ""
		if f.Node != nil {
			if f.Node.Minimum != nil {
				attrs += fmt.Sprintf(` min="%v"`, *f.Node.Minimum)
			}
			if f.Node.Maximum != nil {
				attrs += fmt.Sprintf(` max="%v"`, *f.Node.Maximum)
			}
		}
		sb.WriteString(fmt.Sprintf(`<input type="number" name="%s" value="%s"%s%s class="%s">`,
			html.EscapeString(f.Name), html.EscapeString(f.Value), attrs, bind.attrs(), inputClass))
		sb.WriteString(`</div>`)

	case schema.ShapeArrayOfObjects:
		sb.WriteString(fmt.Sprintf(`<div class="border rounded p-3" data-array="%s">`, html.EscapeString(f.Path)))
		sb.WriteString(fmt.Sprintf(`<span class="%s">%s</span>`, labelClass, html.EscapeString(f.Label)))
		for i, row := range f.Children {
			sb.WriteString(fmt.Sprintf(`<div class="mt-2 border-l-2 pl-3" data-item-id="%s">`, html.EscapeString(row.ItemID)))
			writeChildren(sb, row, base, &binding{base: base, action: "array/patch", path: f.Path, k: "index", v: fmt.Sprint(i)})
			sb.WriteString(fmt.Sprintf(`<button type="button" hx-post="%s" hx-target="closest form" class="%s">Remove</button>`,
				html.EscapeString(mutatorURL(base, "array/remove", f.Path, "index", fmt.Sprint(i))), removeClass))
			sb.WriteString(`</div>`)
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" hx-post="%s" hx-target="closest form" class="mt-2 %s">Add item</button>`,
			html.EscapeString(mutatorURL(base, "array/insert", f.Path)), buttonClass))
		sb.WriteString(`</div>`)

	case schema.ShapeKeyedObjects:
		sb.WriteString(fmt.Sprintf(`<div class="border rounded p-3" data-keyed="%s">`, html.EscapeString(f.Path)))
		sb.WriteString(fmt.Sprintf(`<span class="%s">%s</span>`, labelClass, html.EscapeString(f.Label)))
		for _, panel := range f.Children {
			sb.WriteString(fmt.Sprintf(`<details class="mt-2 border rounded p-2" data-key="%s">`, html.EscapeString(panel.Key)))
			sb.WriteString(fmt.Sprintf(`<summary class="text-sm font-medium cursor-pointer">%s</summary>`, html.EscapeString(panel.Label)))
			sb.WriteString(`<div class="mt-2 space-y-2 pl-3">`)
			writeChildren(sb, panel, base, &binding{base: base, action: "keyed/patch", path: f.Path, k: "key", v: panel.Key})
			sb.WriteString(`</div></details>`)
		}
		sb.WriteString(`</div>`)

	case schema.ShapeDynamicMap:
		sb.WriteString(fmt.Sprintf(`<div class="border rounded p-3" data-map="%s">`, html.EscapeString(f.Path)))
		sb.WriteString(fmt.Sprintf(`<span class="%s">%s</span>`, labelClass, html.EscapeString(f.Label)))
		for _, entry := range f.Children {
			sb.WriteString(fmt.Sprintf(`<div class="mt-2 flex gap-2 items-center" data-key="%s">`, html.EscapeString(entry.Key)))
			sb.WriteString(fmt.Sprintf(`<input type="text" value="%s" hx-post="%s" hx-trigger="change" hx-target="closest form" name="__key" class="%s">`,
				html.EscapeString(entry.Key), html.EscapeString(mutatorURL(base, "map/rename", f.Path, "key", entry.Key)), inputClass))
			sb.WriteString(fmt.Sprintf(`<input type="text" value="%s" hx-post="%s" hx-trigger="change" hx-target="closest form" name="__value" class="%s">`,
				html.EscapeString(entry.Value), html.EscapeString(mutatorURL(base, "map/put", f.Path, "key", entry.Key)), inputClass))
			sb.WriteString(fmt.Sprintf(`<button type="button" hx-post="%s" hx-target="closest form" class="%s">Remove</button>`,
				html.EscapeString(mutatorURL(base, "map/remove", f.Path, "key", entry.Key)), removeClass))
			sb.WriteString(`</div>`)
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" hx-post="%s" hx-target="closest form" class="mt-2 %s">Add entry</button>`,
			html.EscapeString(mutatorURL(base, "map/put", f.Path, "key", "")+"&new=1"), buttonClass))
		sb.WriteString(`</div>`)

	case schema.ShapeFileReference:
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		sb.WriteString(fmt.Sprintf(`<input type="text" name="%s" value="%s"%s data-file-picker="1" class="%s">`,
			html.EscapeString(f.Name), html.EscapeString(f.Value), bind.attrs(), inputClass))
		sb.WriteString(`</div>`)

	case schema.ShapeCustomFragment:
		sb.WriteString(fmt.Sprintf(`<div data-fragment="%s">`, html.EscapeString(f.Path)))
		sb.WriteString(fmt.Sprintf(`<input type="hidden" name="%s" value="%s"%s>`,
			html.EscapeString(f.Name), html.EscapeString(f.Value), bind.attrs()))
		sb.WriteString(`</div>`)

	case schema.ShapeFallback:
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		sb.WriteString(fmt.Sprintf(`<textarea name="%s"%s class="%s font-mono">%s</textarea>`,
			html.EscapeString(f.Name), bind.attrs(), inputClass, html.EscapeString(f.Value)))
		sb.WriteString(`</div>`)

	default: // scalar, number variants
		sb.WriteString(`<div>`)
		writeLabel(sb, f)
		inputType := "text"
		if f.Node != nil && f.Node.Secret {
			inputType = "password"
		}
		sb.WriteString(fmt.Sprintf(`<input type="%s" name="%s" value="%s"%s class="%s">`,
			inputType, html.EscapeString(f.Name), html.EscapeString(f.Value), bind.attrs(), inputClass))
		sb.WriteString(`</div>`)
	}
}

func writeChildren(sb *strings.Builder, f *Field, base string, bind *binding) {
	for _, child := range f.Children {
		cb := bind
		if cb != nil {
			cb = cb.child(fieldName(child.Path))
		}
		writeField(sb, child, base, false, cb)
	}
}

// fieldName returns the last segment of a dotted field path.
func fieldName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

func writeLabel(sb *strings.Builder, f *Field) {
	if f.Label == "" {
		return
	}
	sb.WriteString(fmt.Sprintf(`<label class="%s">%s</label>`, labelClass, html.EscapeString(f.Label)))
}

func mutatorURL(base, action, path string, extra ...string) string {
	q := url.Values{}
	q.Set("path", path)
	for i := 0; i+1 < len(extra); i += 2 {
		q.Set(extra[i], extra[i+1])
	}
	return fmt.Sprintf("%s/%s?%s", base, action, q.Encode())
}
