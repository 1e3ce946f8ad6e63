package emit

import (
	"fmt"
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/fsm"
)

// writeStateSwitch writes the switch on cs whose cases test the key ranges
// in code. jump renders the statement for a matched transition.
func (g *codeGen) writeStateSwitch(w *writer.Writer, l *layout, jump func(t fsm.Transition) string) {
	w.WriteRaw("_resume:")
	w.WriteLine("switch ( cs ) {")
	for cs := 1; cs <= l.numStates(); cs++ {
		w.WriteLinef("case %d:", cs)
		w.Indent()
		for _, t := range l.transitions(cs) {
			w.WriteLinef("if ( %s )", cond(t.Low, t.High))
			w.Indent()
			w.WriteLine(jump(t))
			w.Dedent()
		}
		w.WriteLine(g.unmatched(0))
		w.Dedent()
	}
	w.WriteLine("default:")
	w.Indent()
	w.WriteLine("goto _out;")
	w.Dedent()
	w.WriteLine("}")
}

func gotoJump(l *layout) func(t fsm.Transition) string {
	return func(t fsm.Transition) string {
		if table := l.table(t.Actions); table != 0 {
			return fmt.Sprintf("{ cs = %d; goto f%d; }", l.target(t), table)
		}
		return fmt.Sprintf("{ cs = %d; goto _again; }", l.target(t))
	}
}

// GotoCodeGen emits a switch of states with the key tests in code; action
// lists are interpreted from an array
type GotoCodeGen struct {
	codeGen
}

// NewGotoCodeGen creates a goto-driven generator
func NewGotoCodeGen(out io.Writer, d Dialect, opts codegen.Options) *GotoCodeGen {
	return &GotoCodeGen{codeGen: newCodeGen(out, d, codegen.Goto, opts)}
}

// Generate writes the machine
func (g *GotoCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	vals, offsets := l.actionsArray()

	w := g.newWriter()
	g.writeHeader(w, l)
	g.writeActionsArray(w, l)
	w.BlankLine()

	d := g.dialect
	g.openExec(w, l,
		"int _nacts",
		d.ConstPtrDecl(d.ArrayType(maxOf(vals)), "_acts"),
	)
	g.writeStateSwitch(w, l, gotoJump(l))
	if len(l.tables) > 0 {
		for t := 1; t <= len(l.tables); t++ {
			w.WriteRaw(fmt.Sprintf("f%d:", t))
			w.WriteLinef("_acts = %s + %d;", d.ArrayPtr("_"+l.name+"_actions"), offsets[t])
			w.WriteLine("goto _execFuncs;")
		}
		w.WriteRaw("_execFuncs:")
		g.writeExecFuncs(w, l)
	}
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}

// FGotoCodeGen is the goto layout with every action table expanded in place
type FGotoCodeGen struct {
	codeGen
}

// NewFGotoCodeGen creates a faster goto-driven generator
func NewFGotoCodeGen(out io.Writer, d Dialect, opts codegen.Options) *FGotoCodeGen {
	return &FGotoCodeGen{codeGen: newCodeGen(out, d, codegen.FGoto, opts)}
}

// Generate writes the machine
func (g *FGotoCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))

	w := g.newWriter()
	g.writeHeader(w, l)

	g.openExec(w, l)
	g.writeStateSwitch(w, l, gotoJump(l))
	for t := 1; t <= len(l.tables); t++ {
		w.WriteRaw(fmt.Sprintf("f%d:", t))
		g.writeActionTable(w, l, t)
		w.WriteLine("goto _again;")
	}
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}
