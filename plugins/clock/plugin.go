// ABOUTME: Clock display plugin for PixelDeck.
// ABOUTME: Scalar, enum, boolean, and bounded-number configuration.

package clock

import (
	"github.com/pixeldeck/pixeldeck/internal/schema"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

func init() {
	core.Register(&ClockPlugin{})
}

const configSchema = `{
  "type": "object",
  "title": "Clock",
  "properties": {
    "timezone": {
      "type": "string",
      "title": "Timezone",
      "description": "IANA timezone name",
      "default": "UTC"
    },
    "format": {
      "type": "string",
      "title": "Time format",
      "enum": ["12h", "24h"],
      "default": "24h"
    },
    "show_seconds": {
      "type": "boolean",
      "title": "Show seconds",
      "default": false
    },
    "brightness": {
      "type": "integer",
      "title": "Brightness",
      "minimum": 1,
      "maximum": 100,
      "default": 80
    }
  }
}`

var parsedSchema = core.MustSchema(configSchema)

type ClockPlugin struct{}

func (p *ClockPlugin) Name() string    { return "clock" }
func (p *ClockPlugin) Title() string   { return "Clock" }
func (p *ClockPlugin) Version() string { return "1.2.0" }

func (p *ClockPlugin) DisplayModes() []string { return []string{"fullscreen", "corner"} }
func (p *ClockPlugin) WebUIActions() []string { return []string{"configure"} }

func (p *ClockPlugin) ConfigSchema() *schema.Node { return parsedSchema }

func (p *ClockPlugin) DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"timezone":     "UTC",
		"format":       "24h",
		"show_seconds": false,
		"brightness":   80,
	}
}
