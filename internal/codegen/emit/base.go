// Package emit implements the state machine code layouts shared by the C and
// D generators. A Dialect supplies the host-language syntax; the layouts
// decide how states, transitions and actions are arranged.
package emit

import (
	"fmt"
	"io"
	"strings"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/fsm"
	"github.com/okra-platform/rlgen/internal/hostlang"
)

// Dialect abstracts the syntax differences between host languages
type Dialect interface {
	// Lang returns the host language the dialect writes
	Lang() hostlang.Lang

	// ArrayType returns the narrowest element type holding values up to max
	ArrayType(max int) string

	// StaticArray declares a constant array
	StaticArray(w *writer.Writer, typ, name string, vals []int)

	// StaticConst declares a constant int
	StaticConst(w *writer.Writer, name string, val int)

	// ArrayPtr converts an array name into a pointer to its first element
	ArrayPtr(name string) string

	// KeyPtrDecl declares a pointer into the input, e.g. "const unsigned char *p"
	KeyPtrDecl(name string) string

	// KeyPtrPtrDecl declares a pointer to an input pointer
	KeyPtrPtrDecl(name string) string

	// IntPtrDecl declares a pointer to int
	IntPtrDecl(name string) string

	// ConstPtrDecl declares a read-only pointer to elements of typ
	ConstPtrDecl(typ, name string) string
}

// codeGen carries what every layout needs. Layouts embed it.
type codeGen struct {
	out     io.Writer
	dialect Dialect
	style   codegen.Style
	opts    codegen.Options
	meta    codegen.Metadata
}

func newCodeGen(out io.Writer, d Dialect, style codegen.Style, opts codegen.Options) codeGen {
	return codeGen{out: out, dialect: d, style: style, opts: opts}
}

// SetMetadata implements codegen.Generator
func (g *codeGen) SetMetadata(meta codegen.Metadata) { g.meta = meta }

// Metadata implements codegen.Generator
func (g *codeGen) Metadata() codegen.Metadata { return g.meta }

// Sink implements codegen.Generator
func (g *codeGen) Sink() io.Writer { return g.out }

// Lang implements codegen.Generator
func (g *codeGen) Lang() hostlang.Lang { return g.dialect.Lang() }

// Style implements codegen.Generator
func (g *codeGen) Style() codegen.Style { return g.style }

// flush copies the finished definition to the sink in one write
func (g *codeGen) flush(w *writer.Writer) error {
	if _, err := w.WriteTo(g.out); err != nil {
		return fmt.Errorf("failed to write machine %s: %w", g.meta.FSMName, err)
	}
	return nil
}

// machineName prefers the definition name given by the parser
func (g *codeGen) machineName(m *fsm.Machine) string {
	if g.meta.FSMName != "" {
		return g.meta.FSMName
	}
	return m.Name
}

// sourceName is the file named in the banner and #line directives
func (g *codeGen) sourceName() string {
	if g.meta.SourceFileName == "" {
		return "<stdin>"
	}
	return g.meta.SourceFileName
}

func (g *codeGen) newWriter() *writer.Writer {
	return writer.NewWriter("\t")
}

// writeHeader writes the banner comment and the public constants
func (g *codeGen) writeHeader(w *writer.Writer, l *layout) {
	w.WriteComment(fmt.Sprintf("machine %s from %s: %s (-%s)", l.name, g.sourceName(), g.style.Description(), g.style))
	w.BlankLine()
	g.dialect.StaticConst(w, l.name+"_start", l.start)
	g.dialect.StaticConst(w, l.name+"_first_final", l.firstFinal)
	g.dialect.StaticConst(w, l.name+"_error", 0)
	w.BlankLine()
}

// openExec writes the execute signature, locals and the empty-input check
func (g *codeGen) openExec(w *writer.Writer, l *layout, locals ...string) {
	w.WriteLinef("int %s_execute( %s, %s )", l.name, g.dialect.KeyPtrDecl("p"), g.dialect.KeyPtrDecl("pe"))
	w.WriteLine("{")
	w.Indent()
	w.WriteLinef("int cs = %s_start;", l.name)
	for _, local := range locals {
		w.WriteLine(local + ";")
	}
	w.BlankLine()
	w.WriteLine("if ( p == pe )")
	w.Indent()
	w.WriteLine("goto _out;")
	w.Dedent()
}

func (g *codeGen) closeExec(w *writer.Writer) {
	w.WriteRaw("_out:")
	w.WriteLine("return cs;")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()
}

// unmatched is the statement run when no transition covers the key. stay is
// the state to record when the machine is incomplete and cs is not kept
// current by the layout; pass 0 when it is.
func (g *codeGen) unmatched(stay int) string {
	if g.meta.WantComplete {
		return "{ cs = 0; goto _out; }"
	}
	if stay > 0 {
		return fmt.Sprintf("{ cs = %d; goto _out; }", stay)
	}
	return "goto _out;"
}

// writeAction writes one action body, preceded by a #line directive
func (g *codeGen) writeAction(w *writer.Writer, a *fsm.Action) {
	if !g.opts.NoLineDirectives && a.Line > 0 {
		w.WriteLineDirective(a.Line, g.sourceName())
	}
	w.WriteLinef("{%s}", a.Code)
}

// writeActionTable writes every action of table t in order
func (g *codeGen) writeActionTable(w *writer.Writer, l *layout, t int) {
	for _, id := range l.tables[t-1] {
		g.writeAction(w, l.actions[id])
	}
}

// writeActionSwitch writes the switch that runs a single action by id
func (g *codeGen) writeActionSwitch(w *writer.Writer, l *layout, expr string) {
	w.WriteLinef("switch ( %s ) {", expr)
	for _, a := range l.m.Actions {
		w.WriteLinef("case %d:", a.ID)
		w.Indent()
		g.writeAction(w, l.actions[a.ID])
		w.WriteLine("break;")
		w.Dedent()
	}
	w.WriteLine("default: break;")
	w.WriteLine("}")
}

// writeTableSwitch writes the switch that runs a whole action table by id
func (g *codeGen) writeTableSwitch(w *writer.Writer, l *layout, expr string) {
	w.WriteLinef("switch ( %s ) {", expr)
	for t := 1; t <= len(l.tables); t++ {
		w.WriteLinef("case %d:", t)
		w.Indent()
		g.writeActionTable(w, l, t)
		w.WriteLine("break;")
		w.Dedent()
	}
	w.WriteLine("default: break;")
	w.WriteLine("}")
}

// writeActionsArray declares the action-list array used by the layouts that
// interpret action lists at run time
func (g *codeGen) writeActionsArray(w *writer.Writer, l *layout) {
	vals, _ := l.actionsArray()
	g.dialect.StaticArray(w, g.dialect.ArrayType(maxOf(vals)), "_"+l.name+"_actions", vals)
}

// writeExecFuncs writes the loop interpreting an action list at _acts
func (g *codeGen) writeExecFuncs(w *writer.Writer, l *layout) {
	w.WriteLine("_nacts = *_acts++;")
	w.WriteLine("while ( _nacts-- > 0 ) {")
	w.Indent()
	g.writeActionSwitch(w, l, "*_acts++")
	w.Dedent()
	w.WriteLine("}")
}

// cond is the test for key range [lo, hi]
func cond(lo, hi int) string {
	if lo == hi {
		return fmt.Sprintf("(*p) == %d", lo)
	}
	return fmt.Sprintf("%d <= (*p) && (*p) <= %d", lo, hi)
}

func maxOf(vals []int) int {
	m := 0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

// identifier turns a machine name into a valid C/D identifier
func identifier(name string) string {
	if name == "" {
		return "fsm"
	}
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
