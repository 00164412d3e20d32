// ABOUTME: Photo gallery plugin for PixelDeck.
// ABOUTME: File-reference and custom-fragment widgets, plus a secret API key.

package gallery

import (
	"github.com/pixeldeck/pixeldeck/internal/schema"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

func init() {
	core.Register(&GalleryPlugin{})
}

const configSchema = `{
  "type": "object",
  "title": "Gallery",
  "propertyOrder": ["placeholder_image", "transition", "interval_seconds", "schedule", "api_key"],
  "properties": {
    "placeholder_image": {
      "type": "string",
      "title": "Placeholder image",
      "widget": "file-reference",
      "widgetOptions": {"accept": "image/*"}
    },
    "transition": {
      "type": "string",
      "title": "Transition",
      "enum": ["fade", "slide", "none"],
      "default": "fade"
    },
    "interval_seconds": {
      "type": "integer",
      "title": "Slide interval (seconds)",
      "minimum": 2,
      "maximum": 600,
      "default": 10
    },
    "schedule": {
      "type": "object",
      "title": "Display schedule",
      "widget": "schedule-picker",
      "default": {"start": "08:00", "end": "22:00"}
    },
    "api_key": {
      "type": "string",
      "title": "API key",
      "secret": true
    }
  }
}`

var parsedSchema = core.MustSchema(configSchema)

type GalleryPlugin struct{}

func (p *GalleryPlugin) Name() string    { return "gallery" }
func (p *GalleryPlugin) Title() string   { return "Photo Gallery" }
func (p *GalleryPlugin) Version() string { return "1.0.4" }

func (p *GalleryPlugin) DisplayModes() []string { return []string{"fullscreen"} }
func (p *GalleryPlugin) WebUIActions() []string { return []string{"configure"} }

func (p *GalleryPlugin) ConfigSchema() *schema.Node { return parsedSchema }

func (p *GalleryPlugin) DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"placeholder_image": "",
		"transition":        "fade",
		"interval_seconds":  10,
		"schedule":          map[string]interface{}{"start": "08:00", "end": "22:00"},
		"api_key":           "",
	}
}
