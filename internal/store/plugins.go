// ABOUTME: Plugin record persistence: install, list, toggle, remove.
// ABOUTME: display_modes and web_ui_actions are stored as JSON columns.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// InstallPlugin inserts or replaces an installed plugin record. Enabled state
// of an already-installed plugin is preserved on update.
func (s *Store) InstallPlugin(rec core.PluginRecord) error {
	modes, err := json.Marshal(rec.DisplayModes)
	if err != nil {
		return fmt.Errorf("failed to encode display_modes: %w", err)
	}
	actions, err := json.Marshal(rec.WebUIActions)
	if err != nil {
		return fmt.Errorf("failed to encode web_ui_actions: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO plugins (id, name, version, enabled, display_modes, web_ui_actions)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			display_modes = excluded.display_modes,
			web_ui_actions = excluded.web_ui_actions
	`, rec.ID, rec.Name, rec.Version, boolToInt(rec.Enabled), string(modes), string(actions))
	return err
}

// GetPlugin returns one installed plugin, or nil when not installed.
func (s *Store) GetPlugin(id string) (*core.PluginRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, name, version, enabled, display_modes, web_ui_actions
		FROM plugins WHERE id = ?
	`, id)

	rec, err := scanPlugin(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListInstalled returns all installed plugins ordered by name.
func (s *Store) ListInstalled() ([]core.PluginRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, name, version, enabled, display_modes, web_ui_actions
		FROM plugins ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.PluginRecord
	for rows.Next() {
		rec, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// SetEnabled flips a plugin's enabled flag.
func (s *Store) SetEnabled(id string, enabled bool) error {
	res, err := s.db.Exec("UPDATE plugins SET enabled = ? WHERE id = ?", boolToInt(enabled), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("plugin %q is not installed", id)
	}
	return nil
}

// RemovePlugin deletes a plugin and its configuration and assets.
func (s *Store) RemovePlugin(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM plugin_configs WHERE plugin_id = ?",
		"DELETE FROM assets WHERE plugin_id = ?",
		"DELETE FROM plugins WHERE id = ?",
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlugin(row rowScanner) (*core.PluginRecord, error) {
	var rec core.PluginRecord
	var enabled int
	var modes, actions string

	if err := row.Scan(&rec.ID, &rec.Name, &rec.Version, &enabled, &modes, &actions); err != nil {
		return nil, err
	}
	rec.Enabled = enabled != 0

	if err := json.Unmarshal([]byte(modes), &rec.DisplayModes); err != nil {
		return nil, fmt.Errorf("corrupt display_modes for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(actions), &rec.WebUIActions); err != nil {
		return nil, fmt.Errorf("corrupt web_ui_actions for %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
