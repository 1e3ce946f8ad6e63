package emit

import (
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/fsm"
)

// tableData is the transition table shared by the table and goto layouts.
// Per-state arrays are indexed by state number; transition arrays start at 1
// so that 0 can mean "no transition".
type tableData struct {
	keyOffsets   []int
	keys         []int
	rangeLens    []int
	indexOffsets []int
	transTargs   []int
	transActions []int
}

func buildTables(l *layout, actionOf func(acts []int) int) tableData {
	n := l.numStates()
	td := tableData{
		keyOffsets:   make([]int, n+1),
		rangeLens:    make([]int, n+1),
		indexOffsets: make([]int, n+1),
		transTargs:   []int{0},
		transActions: []int{0},
	}
	for cs := 1; cs <= n; cs++ {
		trans := l.transitions(cs)
		td.keyOffsets[cs] = len(td.keys)
		td.rangeLens[cs] = len(trans)
		td.indexOffsets[cs] = len(td.transTargs)
		for _, t := range trans {
			td.keys = append(td.keys, t.Low, t.High)
			td.transTargs = append(td.transTargs, l.target(t))
			td.transActions = append(td.transActions, actionOf(t.Actions))
		}
	}
	return td
}

func (g *codeGen) writeTransArrays(w *writer.Writer, l *layout, td tableData) {
	d := g.dialect
	d.StaticArray(w, d.ArrayType(maxOf(td.transTargs)), "_"+l.name+"_trans_targs", td.transTargs)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(td.transActions)), "_"+l.name+"_trans_actions", td.transActions)
	w.BlankLine()
}

func (g *codeGen) writeKeyArrays(w *writer.Writer, l *layout, td tableData) {
	d := g.dialect
	d.StaticArray(w, d.ArrayType(maxOf(td.keyOffsets)), "_"+l.name+"_key_offsets", td.keyOffsets)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(fsm.MaxKey), "_"+l.name+"_keys", td.keys)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(td.rangeLens)), "_"+l.name+"_range_lens", td.rangeLens)
	w.BlankLine()
	d.StaticArray(w, d.ArrayType(maxOf(td.indexOffsets)), "_"+l.name+"_index_offsets", td.indexOffsets)
	w.BlankLine()
}

// writeRangeSearch scans the ranges of the current state and jumps to
// _match with _trans set, or runs the unmatched statement
func (g *codeGen) writeRangeSearch(w *writer.Writer, l *layout) {
	w.WriteRaw("_resume:")
	w.WriteLinef("_keys = %s + _%s_key_offsets[cs];", g.dialect.ArrayPtr("_"+l.name+"_keys"), l.name)
	w.WriteLinef("_trans = _%s_index_offsets[cs];", l.name)
	w.WriteLinef("_klen = _%s_range_lens[cs];", l.name)
	w.WriteLine("while ( _klen > 0 ) {")
	w.Indent()
	w.WriteLine("if ( _keys[0] <= (*p) && (*p) <= _keys[1] )")
	w.Indent()
	w.WriteLine("goto _match;")
	w.Dedent()
	w.WriteLine("_keys += 2;")
	w.WriteLine("_trans += 1;")
	w.WriteLine("_klen -= 1;")
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine(g.unmatched(0))
}

// writeAgain advances the input and loops back to _resume
func (g *codeGen) writeAgain(w *writer.Writer) {
	w.WriteRaw("_again:")
	w.WriteLine("if ( cs == 0 )")
	w.Indent()
	w.WriteLine("goto _out;")
	w.Dedent()
	w.WriteLine("if ( ++p != pe )")
	w.Indent()
	w.WriteLine("goto _resume;")
	w.Dedent()
}

// writeListDispatch runs the action list referenced by _trans_actions
func (g *codeGen) writeListDispatch(w *writer.Writer, l *layout) {
	w.WriteLinef("if ( _%s_trans_actions[_trans] == 0 )", l.name)
	w.Indent()
	w.WriteLine("goto _again;")
	w.Dedent()
	w.WriteLinef("_acts = %s + _%s_trans_actions[_trans];", g.dialect.ArrayPtr("_"+l.name+"_actions"), l.name)
	g.writeExecFuncs(w, l)
}

// TabCodeGen emits a table-driven machine whose transitions carry offsets
// into a shared action-list array
type TabCodeGen struct {
	codeGen
}

// NewTabCodeGen creates a table-driven generator
func NewTabCodeGen(out io.Writer, d Dialect, opts codegen.Options) *TabCodeGen {
	return &TabCodeGen{codeGen: newCodeGen(out, d, codegen.Tables, opts)}
}

// Generate writes the machine
func (g *TabCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	vals, offsets := l.actionsArray()
	td := buildTables(l, func(acts []int) int { return offsets[l.table(acts)] })

	w := g.newWriter()
	g.writeHeader(w, l)
	g.writeActionsArray(w, l)
	w.BlankLine()
	g.writeKeyArrays(w, l, td)
	g.writeTransArrays(w, l, td)

	d := g.dialect
	g.openExec(w, l,
		"int _klen",
		"int _trans",
		"int _nacts",
		d.ConstPtrDecl(d.ArrayType(fsm.MaxKey), "_keys"),
		d.ConstPtrDecl(d.ArrayType(maxOf(vals)), "_acts"),
	)
	g.writeRangeSearch(w, l)
	w.WriteRaw("_match:")
	w.WriteLinef("cs = _%s_trans_targs[_trans];", l.name)
	g.writeListDispatch(w, l)
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}

// FTabCodeGen emits a table-driven machine whose transitions name a whole
// action table, run from a single switch
type FTabCodeGen struct {
	codeGen
}

// NewFTabCodeGen creates a faster table-driven generator
func NewFTabCodeGen(out io.Writer, d Dialect, opts codegen.Options) *FTabCodeGen {
	return &FTabCodeGen{codeGen: newCodeGen(out, d, codegen.FTables, opts)}
}

// Generate writes the machine
func (g *FTabCodeGen) Generate(m *fsm.Machine) error {
	l := newLayout(m, g.machineName(m))
	td := buildTables(l, l.table)

	w := g.newWriter()
	g.writeHeader(w, l)
	g.writeKeyArrays(w, l, td)
	g.writeTransArrays(w, l, td)

	d := g.dialect
	g.openExec(w, l,
		"int _klen",
		"int _trans",
		d.ConstPtrDecl(d.ArrayType(fsm.MaxKey), "_keys"),
	)
	g.writeRangeSearch(w, l)
	w.WriteRaw("_match:")
	w.WriteLinef("cs = _%s_trans_targs[_trans];", l.name)
	g.writeTableSwitch(w, l, "_"+l.name+"_trans_actions[_trans]")
	g.writeAgain(w)
	g.closeExec(w)

	return g.flush(w)
}
