// Package lifecycle tracks the ephemeral resources owned by one battle —
// the local document copy and the open event-stream transport — and
// guarantees each is released exactly once, no matter which direction
// teardown comes from.
package lifecycle

import (
	"io"
	"sync"
)

// Releaser frees a caller-owned resource. Implementations must tolerate
// being called more than once.
type Releaser interface {
	Release()
}

// Manager owns at most one document handle and one transport at a time.
// Replacing a battle, ending it, or shutting down all release the held
// resources; release paths can race (a new battle starting while an old
// transport error is still being handled), so double release is a no-op.
type Manager struct {
	mu        sync.Mutex
	battleID  string
	doc       Releaser
	transport io.Closer
}

func NewManager() *Manager {
	return &Manager{}
}

// Track registers the resources of a new battle, releasing whatever the
// manager still holds from the previous one. Either resource may be nil.
func (m *Manager) Track(battleID string, doc Releaser, transport io.Closer) {
	m.mu.Lock()
	prevDoc, prevTransport := m.doc, m.transport
	m.battleID, m.doc, m.transport = battleID, doc, transport
	m.mu.Unlock()

	release(prevDoc, prevTransport)
}

// Release frees the resources of the given battle if it is still the one
// being tracked. Stale triggers — an old stream erroring after its battle
// was replaced — are no-ops.
func (m *Manager) Release(battleID string) {
	m.mu.Lock()
	if m.battleID != battleID {
		m.mu.Unlock()
		return
	}
	doc, transport := m.doc, m.transport
	m.battleID, m.doc, m.transport = "", nil, nil
	m.mu.Unlock()

	release(doc, transport)
}

// Shutdown releases whatever is currently held. Safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	doc, transport := m.doc, m.transport
	m.battleID, m.doc, m.transport = "", nil, nil
	m.mu.Unlock()

	release(doc, transport)
}

func release(doc Releaser, transport io.Closer) {
	if transport != nil {
		transport.Close()
	}
	if doc != nil {
		doc.Release()
	}
}
