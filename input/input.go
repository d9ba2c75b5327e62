// Package input provides the confirm and deny sources used to answer a
// numeric comparison during pairing.
package input

import (
	"sync"
)

// Manual is a source fired by calling Trigger. It fires at most once per Arm.
type Manual struct {
	mu   sync.Mutex
	fire func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Arm(fire func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fire = fire
	return nil
}

func (m *Manual) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fire = nil
}

// Armed reports whether a Trigger would fire.
func (m *Manual) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fire != nil
}

// Trigger fires the source if it is armed and reports whether it did.
func (m *Manual) Trigger() bool {
	m.mu.Lock()
	fn := m.fire
	m.fire = nil
	m.mu.Unlock()

	if fn == nil {
		return false
	}
	// called unlocked, fire may disarm us
	fn()
	return true
}
