package fsm

import (
	"fmt"
	"sync"
)

type State string
type Event string

// Guard must return true for its transition to be taken. A nil guard always
// passes.
type Guard func() bool

type transition struct {
	from  State
	to    State
	event Event
	guard Guard
}

// Machine is a closed transition-table state machine. Every legal state change
// is declared up front with Add/AddGuarded; firing an event with no matching
// table entry is an error, which keeps illegal phase combinations unreachable.
type Machine struct {
	mu      sync.RWMutex
	current State
	table   []transition
}

func New(initial State) *Machine {
	return &Machine{current: initial}
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Add declares an unconditional transition.
func (m *Machine) Add(from, to State, event Event) {
	m.AddGuarded(from, to, event, nil)
}

// AddGuarded declares a transition taken only while guard returns true.
func (m *Machine) AddGuarded(from, to State, event Event, guard Guard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = append(m.table, transition{from: from, to: to, event: event, guard: guard})
}

// Can reports whether event has a matching table entry from the current state.
func (m *Machine) Can(event Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.match(event) != nil
}

// Fire triggers a state transition and returns the new state. It is
// thread-safe.
func (m *Machine) Fire(event Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr := m.match(event)
	if tr == nil {
		return m.current, fmt.Errorf("invalid transition from %s via %s", m.current, event)
	}
	m.current = tr.to
	return m.current, nil
}

// match scans the table in declaration order; the first entry whose source
// state and guard match wins. Callers must hold at least a read lock.
func (m *Machine) match(event Event) *transition {
	for i := range m.table {
		tr := &m.table[i]
		if tr.from != m.current || tr.event != event {
			continue
		}
		if tr.guard != nil && !tr.guard() {
			continue
		}
		return tr
	}
	return nil
}
