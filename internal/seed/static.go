// ABOUTME: Static sample configurations for the bundled plugins.
// ABOUTME: Used when no OpenAI key is configured or AI generation fails.

package seed

import "github.com/pixeldeck/pixeldeck/plugins/core"

// staticConfig returns a hand-written sample for the bundled plugins and the
// plugin's own defaults for anything else.
func staticConfig(def core.Definition) map[string]interface{} {
	switch def.Name() {
	case "clock":
		return map[string]interface{}{
			"timezone":     "America/New_York",
			"format":       "12h",
			"show_seconds": true,
			"brightness":   65,
		}
	case "news":
		return map[string]interface{}{
			"feeds": []interface{}{
				map[string]interface{}{
					"id":      "feed-hn",
					"url":     "https://news.ycombinator.com/rss",
					"label":   "Hacker News",
					"enabled": true,
				},
				map[string]interface{}{
					"id":      "feed-bbc",
					"url":     "https://feeds.bbci.co.uk/news/world/rss.xml",
					"label":   "BBC World",
					"enabled": false,
				},
			},
			"request_headers": map[string]interface{}{
				"User-Agent": "PixelDeck/2.0",
			},
			"categories": map[string]interface{}{
				"general": map[string]interface{}{"color": "#ffffff", "max_items": 5},
				"tech":    map[string]interface{}{"color": "#00ff88", "max_items": 8},
			},
			"days":            []interface{}{"mon", "tue", "wed", "thu", "fri"},
			"keywords":        []interface{}{"golang", "hardware"},
			"refresh_minutes": 20,
		}
	case "gallery":
		return map[string]interface{}{
			"placeholder_image": "",
			"transition":        "slide",
			"interval_seconds":  15,
			"schedule":          map[string]interface{}{"start": "07:30", "end": "23:00"},
			"api_key":           "",
		}
	}
	return def.DefaultConfig()
}
