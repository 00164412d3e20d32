// ABOUTME: Operation tracking for asynchronous plugin actions.
// ABOUTME: Uninstalls progress pending -> in_progress -> completed/failed.

package store

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// CreateOperation records a new pending operation and returns it.
func (s *Store) CreateOperation(pluginID, kind string) (*core.Operation, error) {
	op := &core.Operation{
		ID:       uuid.NewString(),
		PluginID: pluginID,
		Kind:     kind,
		Status:   core.OpPending,
	}

	_, err := s.db.Exec(`
		INSERT INTO operations (id, plugin_id, kind, status) VALUES (?, ?, ?, ?)
	`, op.ID, op.PluginID, op.Kind, op.Status)
	if err != nil {
		return nil, err
	}
	return op, nil
}

// GetOperation returns one operation, or nil when unknown.
func (s *Store) GetOperation(id string) (*core.Operation, error) {
	var op core.Operation
	err := s.db.QueryRow(`
		SELECT id, plugin_id, kind, status, error FROM operations WHERE id = ?
	`, id).Scan(&op.ID, &op.PluginID, &op.Kind, &op.Status, &op.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// UpdateOperation moves an operation to a new status.
func (s *Store) UpdateOperation(id, status, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE operations SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, errMsg, id)
	return err
}
