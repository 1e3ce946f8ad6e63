package emit

import (
	"fmt"
	"strings"

	"github.com/okra-platform/rlgen/internal/fsm"
)

// layout numbers the states of a machine the way every style expects them.
// State 0 is the error state; non-final states come first so that
// acceptance is a single comparison against first_final.
type layout struct {
	m          *fsm.Machine
	name       string
	order      []*fsm.State
	trans      [][]fsm.Transition
	cs         map[int]int
	start      int
	firstFinal int
	tables     [][]int
	tableIndex map[string]int
	actions    map[int]*fsm.Action
}

func newLayout(m *fsm.Machine, name string) *layout {
	l := &layout{
		m:          m,
		name:       identifier(name),
		cs:         make(map[int]int, len(m.States)),
		tableIndex: make(map[string]int),
		actions:    make(map[int]*fsm.Action, len(m.Actions)),
	}

	for i := range m.Actions {
		l.actions[m.Actions[i].ID] = &m.Actions[i]
	}

	for _, final := range []bool{false, true} {
		if final {
			l.firstFinal = len(l.order) + 1
		}
		for i := range m.States {
			if m.States[i].Final == final {
				l.order = append(l.order, &m.States[i])
				l.cs[m.States[i].ID] = len(l.order)
			}
		}
	}
	l.start = l.cs[m.StartState]

	l.trans = make([][]fsm.Transition, len(l.order))
	for i, s := range l.order {
		l.trans[i] = fsm.SortedTransitions(s.Transitions)
		for _, t := range l.trans[i] {
			l.table(t.Actions)
		}
	}

	return l
}

// numStates is the number of real states, excluding the error state
func (l *layout) numStates() int {
	return len(l.order)
}

// transitions returns the sorted transitions of state cs
func (l *layout) transitions(cs int) []fsm.Transition {
	return l.trans[cs-1]
}

// target returns the state number a transition moves to
func (l *layout) target(t fsm.Transition) int {
	return l.cs[t.Target]
}

// table returns the id of the action table for acts, 0 when acts is empty.
// Tables are numbered in first-use order.
func (l *layout) table(acts []int) int {
	if len(acts) == 0 {
		return 0
	}
	key := tableKey(acts)
	if id, ok := l.tableIndex[key]; ok {
		return id
	}
	l.tables = append(l.tables, acts)
	l.tableIndex[key] = len(l.tables)
	return len(l.tables)
}

// actionsArray flattens the action tables as count-prefixed lists after a
// leading zero. offsets[t] is where table t starts; offsets[0] is 0.
func (l *layout) actionsArray() ([]int, []int) {
	vals := []int{0}
	offsets := make([]int, len(l.tables)+1)
	for i, acts := range l.tables {
		offsets[i+1] = len(vals)
		vals = append(vals, len(acts))
		vals = append(vals, acts...)
	}
	return vals, offsets
}

func tableKey(acts []int) string {
	parts := make([]string, len(acts))
	for i, a := range acts {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ",")
}
