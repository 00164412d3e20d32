// ABOUTME: Plugin configuration persistence as JSON documents.
// ABOUTME: One row per plugin; secrets can survive a reset when asked to.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SaveConfig upserts a plugin's configuration document.
func (s *Store) SaveConfig(pluginID string, config map[string]interface{}) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO plugin_configs (plugin_id, config, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(plugin_id) DO UPDATE SET
			config = excluded.config,
			updated_at = CURRENT_TIMESTAMP
	`, pluginID, string(raw))
	return err
}

// GetConfig returns a plugin's saved configuration, or nil when none exists.
func (s *Store) GetConfig(pluginID string) (map[string]interface{}, error) {
	var raw string
	err := s.db.QueryRow(
		"SELECT config FROM plugin_configs WHERE plugin_id = ?", pluginID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var config map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("corrupt config for %s: %w", pluginID, err)
	}
	return config, nil
}

// DeleteConfig drops a plugin's saved configuration.
func (s *Store) DeleteConfig(pluginID string) error {
	_, err := s.db.Exec("DELETE FROM plugin_configs WHERE plugin_id = ?", pluginID)
	return err
}
