// ABOUTME: Registry of live config form sessions, one per plugin.
// ABOUTME: Sessions hold the durable shape snapshots between mutator requests.

package admin

import (
	"sync"

	"github.com/pixeldeck/pixeldeck/internal/form"
)

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*form.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*form.Session)}
}

func (r *sessionRegistry) get(pluginID string) (*form.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[pluginID]
	return s, ok
}

// put replaces any previous session for the plugin. Opening the form page
// again abandons the old edit state.
func (r *sessionRegistry) put(pluginID string, s *form.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[pluginID] = s
}

func (r *sessionRegistry) drop(pluginID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, pluginID)
}
