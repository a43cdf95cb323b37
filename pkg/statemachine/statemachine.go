package statemachine

import "sync"

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Observer is notified after every applied transition, self-loops included.
type Observer func(from, to State, event Event)

// StringState is a string-backed State.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent is a string-backed Event.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}

// Machine holds the current state and the [from][event] -> to table.
type Machine struct {
	mu        sync.RWMutex
	current   State
	edges     map[string]map[string]State
	observers []Observer
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state matches any of states by name.
func (m *Machine) Is(states ...State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range states {
		if s != nil && s.Name() == m.current.Name() {
			return true
		}
	}
	return false
}

// Allowed reports whether event has an edge from the current state.
func (m *Machine) Allowed(event Event) bool {
	if event == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.edges[m.current.Name()][event.Name()]
	return ok
}

// Fire moves the machine along the edge for event. Observers run after the
// lock is released.
func (m *Machine) Fire(event Event) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.current
	to, ok := m.edges[from.Name()][event.Name()]
	if !ok {
		m.mu.Unlock()
		return &ErrNoTransitionAvailable{StateName: from.Name(), EventName: event.Name()}
	}
	m.current = to
	observers := m.observers
	m.mu.Unlock()

	for _, observe := range observers {
		observe(from, to, event)
	}
	return nil
}

func (m *Machine) addEdge(from, to State, event Event) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}
	byEvent, ok := m.edges[from.Name()]
	if !ok {
		byEvent = make(map[string]State)
		m.edges[from.Name()] = byEvent
	}
	if _, dup := byEvent[event.Name()]; dup {
		return ErrDuplicateEdge
	}
	byEvent[event.Name()] = to
	return nil
}
