// ABOUTME: Core definition interface for PixelDeck display plugins.
// ABOUTME: Plugins declare metadata and a configuration schema; the hub renders the UI.

package core

import "github.com/pixeldeck/pixeldeck/internal/schema"

// Definition is the contract every bundled display plugin implements.
type Definition interface {
	// Metadata
	Name() string  // unique id, lowercase, e.g. "news"
	Title() string // human-readable name
	Version() string

	// Capabilities surfaced on the installed-plugin listing
	DisplayModes() []string // e.g. "fullscreen", "ticker"
	WebUIActions() []string // e.g. "configure", "preview"

	// Configuration
	ConfigSchema() *schema.Node
	DefaultConfig() map[string]interface{}
}

// PluginRecord is one installed plugin as the API reports it.
type PluginRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Enabled      bool     `json:"enabled"`
	DisplayModes []string `json:"display_modes"`
	WebUIActions []string `json:"web_ui_actions"`
}

// Operation statuses. An operation is terminal once completed or failed.
const (
	OpPending    = "pending"
	OpInProgress = "in_progress"
	OpCompleted  = "completed"
	OpFailed     = "failed"
)

// Operation is a server-tracked asynchronous unit of work.
type Operation struct {
	ID       string `json:"id"`
	PluginID string `json:"plugin_id"`
	Kind     string `json:"kind"` // install, update, uninstall, toggle
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Terminal reports whether the operation has reached a final status.
func (o Operation) Terminal() bool {
	return o.Status == OpCompleted || o.Status == OpFailed
}
