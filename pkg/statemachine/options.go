package statemachine

import (
	"fmt"
)

// Option configures a state machine during construction.
type Option func(*Machine) error

// New creates a machine starting in initial.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == nil {
		return nil, ErrNilInitialState
	}

	m := &Machine{
		current: initial,
		edges:   make(map[string]map[string]State),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a malformed transition table.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single edge.
func WithTransition(from, to State, event Event) Option {
	return func(m *Machine) error {
		if err := m.addEdge(from, to, event); err != nil {
			return fmt.Errorf("transition %s -> %s on %s: %w", nameOf(from), nameOf(to), nameOf(event), err)
		}
		return nil
	}
}

// WithTransitionsFrom adds the same event edge from every state in froms.
func WithTransitionsFrom(froms []State, to State, event Event) Option {
	return func(m *Machine) error {
		for _, from := range froms {
			if err := WithTransition(from, to, event)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithObserver registers a callback invoked after each applied transition.
func WithObserver(o Observer) Option {
	return func(m *Machine) error {
		if o != nil {
			m.observers = append(m.observers, o)
		}
		return nil
	}
}

type named interface{ Name() string }

func nameOf(n named) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name()
}
