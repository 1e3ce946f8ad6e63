package emit

import (
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/fsm"
)

// flatData maps every key inside a state's span directly to a transition.
// An indicies entry of 0 means the key is not covered.
type flatData struct {
	flatKeys     []int
	keySpans     []int
	indexOffsets []int
	indicies     []int
	transTargs   []int
	transActions []int
}

func buildFlat(l *layout, actionOf func(acts []int) int) flatData {
	n := l.numStates()
	fd := flatData{
		flatKeys:     make([]int, 2*(n+1)),
		keySpans:     make([]int, n+1),
		indexOffsets: make([]int, n+1),
		transTargs:   []int{0},
		transActions: []int{0},
	}
	for cs := 1; cs <= n; cs++ {
		trans := l.transitions(cs)
		fd.indexOffsets[cs] = len(fd.indicies)
		if len(trans) == 0 {
			continue
		}
		lo, hi := trans[0].Low, trans[len(trans)-1].High
		fd.flatKeys[2*cs] = lo
		fd.flatKeys[2*cs+1] = hi
		fd.keySpans[cs] = hi - lo + 1

		span := make([]int, hi-lo+1)
		for _, t := range trans {
			idx := len(fd.transTargs)
			fd.transTargs = append(fd.transTargs, l.target(t))
			fd.transActions = append(fd.transActions, actionOf(t.Actions))
			for k := t.Low; k <= t.High; k++ {
				span[k-lo] = idx
			}
		}
		fd.indicies = append(fd.indicies, span...)
	}
	return fd
}

func (g *codeGen) writeFlatArrays(w *writer.Writer, l *layout, fd flatData) {
	d := g.dialect
	d.StaticArray(w, d.ArrayType(fsm.MaxKey), "_"+l.name+"_flat_keys", fd.flatKeys)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(fd.keySpans)), "_"+l.name+"_key_spans", fd.keySpans)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(fd.indexOffsets)), "_"+l.name+"_index_offsets", fd.indexOffsets)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(fd.indicies)), "_"+l.name+"_indicies", fd.indicies)
	w.BlankLine()
	g.writeTransArrays(w, l, tableData{transTargs: fd.transTargs, transActions: fd.transActions})
}

// writeFlatLookup finds the transition for the current key by direct index
func (g *codeGen) writeFlatLookup(w *writer.Writer, l *layout) {
	w.WriteRaw("_resume:")
	w.WriteLine("_trans = 0;")
	w.WriteLinef("if ( _%s_key_spans[cs] > 0 && _%s_flat_keys[cs<<1] <= (*p) && (*p) <= _%s_flat_keys[(cs<<1)+1] )", l.name, l.name, l.name)
	w.Indent()
	w.WriteLinef("_trans = _%s_indicies[_%s_index_offsets[cs] + (*p) - _%s_flat_keys[cs<<1]];", l.name, l.name, l.name)
	w.Dedent()
	w.WriteLine("if ( _trans == 0 )")
	w.Indent()
	w.WriteLine(g.unmatched(0))
	w.Dedent()
	w.WriteLinef("cs = _%s_trans_targs[_trans];", l.name)
}

// FlatCodeGen emits a flat-array machine with an action-list array
type FlatCodeGen struct {
	codeGen
}

// NewFlatCodeGen creates a flat table generator
func NewFlatCodeGen(out io.Writer, d Dialect, opts codegen.Options) *FlatCodeGen {
	return &FlatCodeGen{codeGen: newCodeGen(out, d, codegen.Flat, opts)}
}

// Generate writes the machine
func (g *FlatCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	vals, offsets := l.actionsArray()
	fd := buildFlat(l, func(acts []int) int { return offsets[l.table(acts)] })

	w := g.newWriter()
	g.writeHeader(w, l)
	g.writeActionsArray(w, l)
	w.BlankLine()
	g.writeFlatArrays(w, l, fd)

	d := g.dialect
	g.openExec(w, l,
		"int _trans",
		"int _nacts",
		d.ConstPtrDecl(d.ArrayType(maxOf(vals)), "_acts"),
	)
	g.writeFlatLookup(w, l)
	g.writeListDispatch(w, l)
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}

// FFlatCodeGen emits a flat-array machine that runs action tables from a
// single switch
type FFlatCodeGen struct {
	codeGen
}

// NewFFlatCodeGen creates a faster flat table generator
func NewFFlatCodeGen(out io.Writer, d Dialect, opts codegen.Options) *FFlatCodeGen {
	return &FFlatCodeGen{codeGen: newCodeGen(out, d, codegen.FFlat, opts)}
}

// Generate writes the machine
func (g *FFlatCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	fd := buildFlat(l, l.table)

	w := g.newWriter()
	g.writeHeader(w, l)
	g.writeFlatArrays(w, l, fd)

	g.openExec(w, l, "int _trans")
	g.writeFlatLookup(w, l)
	g.writeTableSwitch(w, l, "_"+l.name+"_trans_actions[_trans]")
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}
