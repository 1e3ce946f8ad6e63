// Package fsm holds the structural description of a compiled state machine
// as handed to the code generators.
package fsm

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Key bounds for the alphabet. Keys are unsigned bytes.
const (
	MinKey = 0
	MaxKey = 255
)

// Machine is one compiled state machine
type Machine struct {
	Name       string
	StartState int
	States     []State
	Actions    []Action
}

// State is a machine state with its outgoing transitions
type State struct {
	ID          int
	Final       bool
	Transitions []Transition
}

// Transition moves to Target on any key in [Low, High], running Actions in order
type Transition struct {
	Low     int
	High    int
	Target  int
	Actions []int
}

// Action is a block of host-language code attached to transitions
type Action struct {
	ID   int
	Name string
	Line int
	Code string
}

// State returns the state with the given id
func (m *Machine) State(id int) (*State, bool) {
	for i := range m.States {
		if m.States[i].ID == id {
			return &m.States[i], true
		}
	}
	return nil, false
}

// Action returns the action with the given id
func (m *Machine) Action(id int) (*Action, bool) {
	for i := range m.Actions {
		if m.Actions[i].ID == id {
			return &m.Actions[i], true
		}
	}
	return nil, false
}

// Validate checks the machine is self-consistent. Every problem found is
// returned; use multierr.Errors to split them.
func (m *Machine) Validate() error {
	var err error

	if m.Name == "" {
		err = multierr.Append(err, fmt.Errorf("machine has no name"))
	}
	if len(m.States) == 0 {
		return multierr.Append(err, fmt.Errorf("machine %q has no states", m.Name))
	}

	states := make(map[int]bool, len(m.States))
	for _, s := range m.States {
		if states[s.ID] {
			err = multierr.Append(err, fmt.Errorf("duplicate state id %d", s.ID))
		}
		states[s.ID] = true
	}

	actions := make(map[int]bool, len(m.Actions))
	for _, a := range m.Actions {
		if actions[a.ID] {
			err = multierr.Append(err, fmt.Errorf("duplicate action id %d", a.ID))
		}
		actions[a.ID] = true
	}

	if !states[m.StartState] {
		err = multierr.Append(err, fmt.Errorf("start state %d is not defined", m.StartState))
	}

	for _, s := range m.States {
		for _, t := range s.Transitions {
			if t.Low < MinKey || t.High > MaxKey || t.Low > t.High {
				err = multierr.Append(err, fmt.Errorf("state %d: invalid key range %d..%d", s.ID, t.Low, t.High))
			}
			if !states[t.Target] {
				err = multierr.Append(err, fmt.Errorf("state %d: transition to undefined state %d", s.ID, t.Target))
			}
			for _, a := range t.Actions {
				if !actions[a] {
					err = multierr.Append(err, fmt.Errorf("state %d: reference to undefined action %d", s.ID, a))
				}
			}
		}
		if overlap, ok := firstOverlap(s.Transitions); ok {
			err = multierr.Append(err, fmt.Errorf("state %d: overlapping key ranges at %d", s.ID, overlap))
		}
	}

	return err
}

func firstOverlap(trans []Transition) (int, bool) {
	sorted := SortedTransitions(trans)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Low <= sorted[i-1].High {
			return sorted[i].Low, true
		}
	}
	return 0, false
}

// SortedTransitions returns a copy of trans ordered by low key
func SortedTransitions(trans []Transition) []Transition {
	sorted := make([]Transition, len(trans))
	copy(sorted, trans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Low < sorted[j].Low
	})
	return sorted
}
