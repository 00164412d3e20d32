// ABOUTME: News ticker plugin for PixelDeck.
// ABOUTME: Exercises every structured configuration shape: feeds, headers, categories.

package news

import (
	"github.com/pixeldeck/pixeldeck/internal/schema"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

func init() {
	core.Register(&NewsPlugin{})
}

// The feed entries carry a server-assigned id that the form never renders;
// mutators must preserve it across edits.
const configSchema = `{
  "type": "object",
  "title": "News",
  "propertyOrder": ["feeds", "request_headers", "categories", "days", "keywords", "refresh_minutes"],
  "properties": {
    "feeds": {
      "type": "array",
      "title": "Feeds",
      "maxItems": 10,
      "items": {
        "type": "object",
        "properties": {
          "url": {"type": "string", "title": "Feed URL"},
          "label": {"type": "string", "title": "Label"},
          "enabled": {"type": "boolean", "title": "Enabled", "default": true}
        }
      }
    },
    "request_headers": {
      "type": "object",
      "title": "Request headers",
      "widget": "dynamic-map",
      "maxProperties": 8,
      "patternProperties": {
        "^[A-Za-z-]+$": {"type": "string"}
      }
    },
    "categories": {
      "type": "object",
      "title": "Categories",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "color": {"type": "string", "title": "Color", "default": "#ffffff"},
          "max_items": {"type": "integer", "title": "Max items", "default": 5, "minimum": 1}
        }
      }
    },
    "days": {
      "type": "array",
      "title": "Active days",
      "widget": "checkbox-group",
      "items": {
        "type": "string",
        "enum": ["mon", "tue", "wed", "thu", "fri", "sat", "sun"]
      },
      "default": ["mon", "tue", "wed", "thu", "fri"]
    },
    "keywords": {
      "type": "array",
      "title": "Keywords",
      "items": {"type": "string"}
    },
    "refresh_minutes": {
      "type": "integer",
      "title": "Refresh interval (minutes)",
      "minimum": 1,
      "maximum": 120,
      "default": 15
    }
  }
}`

var parsedSchema = core.MustSchema(configSchema)

type NewsPlugin struct{}

func (p *NewsPlugin) Name() string    { return "news" }
func (p *NewsPlugin) Title() string   { return "News Ticker" }
func (p *NewsPlugin) Version() string { return "2.0.1" }

func (p *NewsPlugin) DisplayModes() []string { return []string{"ticker", "fullscreen"} }
func (p *NewsPlugin) WebUIActions() []string { return []string{"configure", "preview"} }

func (p *NewsPlugin) ConfigSchema() *schema.Node { return parsedSchema }

func (p *NewsPlugin) DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"feeds":           []interface{}{},
		"request_headers": map[string]interface{}{},
		"categories": map[string]interface{}{
			"general": map[string]interface{}{"color": "#ffffff", "max_items": 5},
		},
		"days":            []interface{}{"mon", "tue", "wed", "thu", "fri"},
		"keywords":        []interface{}{},
		"refresh_minutes": 15,
	}
}
