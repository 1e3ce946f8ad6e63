package emit

import (
	"fmt"
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/fsm"
)

// ipEmitter writes states as labels that jump straight to each other. A
// state label stN advances the input before testing; inN tests the current
// key. Transitions leaving the member set store cs and jump to _leave.
type ipEmitter struct {
	g        *codeGen
	l        *layout
	member   map[int]bool
	targeted map[int]bool
	trs      []trEntry
	trIndex  map[trEntry]int
}

type trEntry struct {
	table  int
	target int
}

func newIpEmitter(g *codeGen, l *layout, states []int) *ipEmitter {
	e := &ipEmitter{
		g:        g,
		l:        l,
		member:   make(map[int]bool, len(states)),
		targeted: make(map[int]bool),
		trIndex:  make(map[trEntry]int),
	}
	for _, cs := range states {
		e.member[cs] = true
	}
	for _, cs := range states {
		for _, t := range l.transitions(cs) {
			if target := l.target(t); e.member[target] {
				e.targeted[target] = true
			}
		}
	}
	return e
}

func (e *ipEmitter) jump(t fsm.Transition) string {
	target := e.l.target(t)
	table := e.l.table(t.Actions)
	if table == 0 {
		if e.member[target] {
			return fmt.Sprintf("goto st%d;", target)
		}
		return fmt.Sprintf("{ cs = %d; goto _leave; }", target)
	}

	key := trEntry{table: table, target: target}
	idx, ok := e.trIndex[key]
	if !ok {
		idx = len(e.trs)
		e.trs = append(e.trs, key)
		e.trIndex[key] = idx
	}
	return fmt.Sprintf("goto tr%d;", idx)
}

func (e *ipEmitter) writeEntry(w *writer.Writer, states []int) {
	w.WriteLine("switch ( cs ) {")
	for _, cs := range states {
		w.WriteLinef("case %d: goto in%d;", cs, cs)
	}
	w.WriteLine("default: goto _out;")
	w.WriteLine("}")
}

func (e *ipEmitter) writeStates(w *writer.Writer, states []int) {
	for _, cs := range states {
		if e.targeted[cs] {
			w.WriteRaw(fmt.Sprintf("st%d:", cs))
			w.WriteLinef("if ( ++p == pe ) { cs = %d; goto _out; }", cs)
		}
		w.WriteRaw(fmt.Sprintf("in%d:", cs))
		for _, t := range e.l.transitions(cs) {
			w.WriteLinef("if ( %s )", cond(t.Low, t.High))
			w.Indent()
			w.WriteLine(e.jump(t))
			w.Dedent()
		}
		w.WriteLine(e.g.unmatched(cs))
	}
}

// writeTransitions writes the action blocks collected by writeStates
func (e *ipEmitter) writeTransitions(w *writer.Writer) {
	for i, tr := range e.trs {
		w.WriteRaw(fmt.Sprintf("tr%d:", i))
		e.g.writeActionTable(w, e.l, tr.table)
		if e.member[tr.target] {
			w.WriteLinef("goto st%d;", tr.target)
		} else {
			w.WriteLinef("cs = %d;", tr.target)
			w.WriteLine("goto _leave;")
		}
	}
}

// IpGotoCodeGen keeps the machine state in the program counter
type IpGotoCodeGen struct {
	codeGen
}

// NewIpGotoCodeGen creates an in-place goto generator
func NewIpGotoCodeGen(out io.Writer, d Dialect, opts codegen.Options) *IpGotoCodeGen {
	return &IpGotoCodeGen{codeGen: newCodeGen(out, d, codegen.IpGoto, opts)}
}

// Generate writes the machine
func (g *IpGotoCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	states := make([]int, l.numStates())
	for i := range states {
		states[i] = i + 1
	}

	w := g.newWriter()
	g.writeHeader(w, l)

	g.openExec(w, l)
	e := newIpEmitter(&g.codeGen, l, states)
	e.writeEntry(w, states)
	e.writeStates(w, states)
	e.writeTransitions(w)
	g.closeExec(w)

	return g.flush(w)
}
