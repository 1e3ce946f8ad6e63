package emit

import (
	"fmt"
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/fsm"
)

// SplitCodeGen divides the states into partitions, each emitted as its own
// in-place goto function. The execute function dispatches on the partition
// of the current state until input runs out or a partition stops.
type SplitCodeGen struct {
	codeGen
}

// NewSplitCodeGen creates an N-way split generator
func NewSplitCodeGen(out io.Writer, d Dialect, opts codegen.Options) *SplitCodeGen {
	return &SplitCodeGen{codeGen: newCodeGen(out, d, codegen.Split, opts)}
}

// partitions assigns contiguous runs of states to partitions. The result
// is indexed by state number; the error state is in partition 0.
func (g *SplitCodeGen) partitions(l *layout) (int, []int) {
	n := l.numStates()
	parts := min(max(g.opts.Partitions, 1), n)
	of := make([]int, n+1)
	for cs := 1; cs <= n; cs++ {
		of[cs] = (cs - 1) * parts / n
	}
	return parts, of
}

// Generate writes the machine
func (g *SplitCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	parts, of := g.partitions(l)
	d := g.dialect

	w := g.newWriter()
	g.writeHeader(w, l)
	d.StaticArray(w, d.ArrayType(maxOf(of)), "_"+l.name+"_partition", of)
	w.BlankLine()

	for part := 0; part < parts; part++ {
		var states []int
		for cs := 1; cs <= l.numStates(); cs++ {
			if of[cs] == part {
				states = append(states, cs)
			}
		}

		w.WriteLinef("static int %s_part%d( %s, %s, %s )", l.name, part,
			d.KeyPtrPtrDecl("_pp"), d.KeyPtrDecl("pe"), d.IntPtrDecl("_pcs"))
		w.WriteLine("{")
		w.Indent()
		w.WriteLine(d.KeyPtrDecl("p") + " = *_pp;")
		w.WriteLine("int cs = *_pcs;")
		w.WriteLine("int _more = 0;")
		w.BlankLine()

		e := newIpEmitter(&g.codeGen, l, states)
		e.writeEntry(w, states)
		e.writeStates(w, states)
		e.writeTransitions(w)

		w.WriteRaw("_leave:")
		w.WriteLine("if ( ++p != pe )")
		w.Indent()
		w.WriteLine("_more = 1;")
		w.Dedent()
		w.WriteRaw("_out:")
		w.WriteLine("*_pp = p;")
		w.WriteLine("*_pcs = cs;")
		w.WriteLine("return _more;")
		w.Dedent()
		w.WriteLine("}")
		w.BlankLine()
	}

	g.openExec(w, l, "int _more = 1")
	w.WriteLine("while ( _more && cs != 0 ) {")
	w.Indent()
	w.WriteLinef("switch ( _%s_partition[cs] ) {", l.name)
	for part := 0; part < parts; part++ {
		w.WriteLinef("case %d:", part)
		w.Indent()
		w.WriteLine(fmt.Sprintf("_more = %s_part%d( &p, pe, &cs );", l.name, part))
		w.WriteLine("break;")
		w.Dedent()
	}
	w.WriteLine("default:")
	w.Indent()
	w.WriteLine("_more = 0;")
	w.WriteLine("break;")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	g.closeExec(w)

	return g.flush(w)
}
