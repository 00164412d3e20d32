// ABOUTME: Plugin operation lifecycle manager: toggle, install, update, uninstall.
// ABOUTME: Toggle uses request tokens; uninstall polls async operations to a terminal state.

package ops

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pixeldeck/pixeldeck/internal/cache"
	"github.com/pixeldeck/pixeldeck/plugins/core"
)

// Polling defaults; both are constructor parameters so tests can shrink them.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
)

// Backend is the slice of the API client the manager drives.
type Backend interface {
	Toggle(ctx context.Context, pluginID string, enabled bool) error
	Install(ctx context.Context, pluginID string) error
	Update(ctx context.Context, pluginID string) error
	Uninstall(ctx context.Context, pluginID string) (operationID string, err error)
	Operation(ctx context.Context, id string) (*core.Operation, error)
}

// Clock abstracts timer waits so polling is testable without real timers.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// OperationError is a reported failure of an asynchronous operation.
type OperationError struct {
	OperationID string
	Message     string
}

func (e *OperationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("operation %s failed", e.OperationID)
}

// TimeoutError means polling gave up. The server-side outcome is unknown:
// the operation may still complete.
type TimeoutError struct {
	OperationID string
	Attempts    int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s still running after %d polls; it may yet complete on the server", e.OperationID, e.Attempts)
}

// Manager issues plugin operations and tracks their completion. A single
// manager serves all plugins; toggle tokens are tracked per plugin.
type Manager struct {
	backend     Backend
	installed   *cache.Installed
	interval    time.Duration
	maxAttempts int
	clock       Clock

	mu     sync.Mutex
	tokens map[string]uint64 // latest issued toggle token per plugin
}

// NewManager creates a manager polling at interval for at most maxAttempts.
func NewManager(backend Backend, installed *cache.Installed, interval time.Duration, maxAttempts int) *Manager {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Manager{
		backend:     backend,
		installed:   installed,
		interval:    interval,
		maxAttempts: maxAttempts,
		clock:       realClock{},
		tokens:      make(map[string]uint64),
	}
}

// Toggle enables or disables a plugin. The cached record is updated
// optimistically and rolled back if the request fails. Responses arriving
// after a newer toggle for the same plugin are discarded silently: the newer
// request already supersedes them.
func (m *Manager) Toggle(ctx context.Context, pluginID string, enabled bool) error {
	m.mu.Lock()
	m.tokens[pluginID]++
	token := m.tokens[pluginID]
	m.mu.Unlock()

	prev, had := m.installed.SetEnabled(pluginID, enabled)

	err := m.backend.Toggle(ctx, pluginID, enabled)

	m.mu.Lock()
	stale := m.tokens[pluginID] != token
	m.mu.Unlock()
	if stale {
		return nil
	}

	if err != nil {
		if had {
			m.installed.SetEnabled(pluginID, prev)
		}
		return err
	}

	m.installed.Invalidate()
	return nil
}

// Install installs a plugin. Any 2xx response is immediately terminal.
func (m *Manager) Install(ctx context.Context, pluginID string) error {
	err := m.backend.Install(ctx, pluginID)
	m.installed.Invalidate()
	return err
}

// Update updates a plugin. Any 2xx response is immediately terminal.
func (m *Manager) Update(ctx context.Context, pluginID string) error {
	err := m.backend.Update(ctx, pluginID)
	m.installed.Invalidate()
	return err
}

// Uninstall removes a plugin. When the backend answers with an operation id
// the manager polls it to a terminal state; otherwise the response itself is
// terminal. Timeouts are reported distinctly from failures.
func (m *Manager) Uninstall(ctx context.Context, pluginID string) error {
	opID, err := m.backend.Uninstall(ctx, pluginID)
	if err != nil {
		m.installed.Invalidate()
		return err
	}
	if opID == "" {
		m.installed.Invalidate()
		return nil
	}
	return m.poll(ctx, opID)
}

// poll drives one operation to a terminal state or gives up after the
// attempt ceiling. Polling is abandoned client-side only; the server keeps
// running the operation either way.
func (m *Manager) poll(ctx context.Context, opID string) error {
	defer m.installed.Invalidate()

	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.clock.After(m.interval):
		}

		op, err := m.backend.Operation(ctx, opID)
		if err != nil {
			// Transient poll failures consume an attempt and continue.
			continue
		}

		switch op.Status {
		case core.OpCompleted:
			return nil
		case core.OpFailed:
			return &OperationError{OperationID: opID, Message: op.Error}
		}
	}

	return &TimeoutError{OperationID: opID, Attempts: m.maxAttempts}
}
