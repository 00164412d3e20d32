// ABOUTME: Uploaded asset records for file-reference configuration fields.
// ABOUTME: Tracks the stored path and size of each uploaded file.

package store

import (
	"github.com/google/uuid"
)

// Asset is one uploaded file belonging to a plugin.
type Asset struct {
	ID       string `json:"id"`
	PluginID string `json:"plugin_id"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

// AddAsset records an uploaded file.
func (s *Store) AddAsset(pluginID, path string, size int64) (*Asset, error) {
	a := &Asset{ID: uuid.NewString(), PluginID: pluginID, Path: path, Size: size}
	_, err := s.db.Exec(`
		INSERT INTO assets (id, plugin_id, path, size) VALUES (?, ?, ?, ?)
	`, a.ID, a.PluginID, a.Path, a.Size)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssets returns a plugin's uploaded files, newest first.
func (s *Store) ListAssets(pluginID string) ([]Asset, error) {
	rows, err := s.db.Query(`
		SELECT id, plugin_id, path, size FROM assets
		WHERE plugin_id = ? ORDER BY uploaded_at DESC
	`, pluginID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.PluginID, &a.Path, &a.Size); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
