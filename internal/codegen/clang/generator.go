// Package clang generates state machines as C source.
package clang

import (
	"io"
	"strconv"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/emit"
	"github.com/okra-platform/rlgen/internal/codegen/writer"
	"github.com/okra-platform/rlgen/internal/hostlang"
)

// Dialect is the C syntax used by the layouts
var Dialect emit.Dialect = dialect{}

type dialect struct{}

func (dialect) Lang() hostlang.Lang {
	return hostlang.C
}

func (dialect) ArrayType(max int) string {
	switch {
	case max <= 0xff:
		return "unsigned char"
	case max <= 0xffff:
		return "unsigned short"
	default:
		return "int"
	}
}

func (dialect) StaticArray(w *writer.Writer, typ, name string, vals []int) {
	w.WriteLinef("static const %s %s[] = {", typ, name)
	w.WriteList(literals(vals), 8)
	w.WriteLine("};")
}

func (dialect) StaticConst(w *writer.Writer, name string, val int) {
	w.WriteLinef("static const int %s = %d;", name, val)
}

func (dialect) ArrayPtr(name string) string {
	return name
}

func (dialect) KeyPtrDecl(name string) string {
	return "const unsigned char *" + name
}

func (dialect) KeyPtrPtrDecl(name string) string {
	return "const unsigned char **" + name
}

func (dialect) IntPtrDecl(name string) string {
	return "int *" + name
}

func (dialect) ConstPtrDecl(typ, name string) string {
	return "const " + typ + " *" + name
}

// literals renders array values; C rejects empty initializers so an empty
// array gets a single zero
func literals(vals []int) []string {
	if len(vals) == 0 {
		return []string{"0"}
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// NewTables creates the table-driven C generator (-T0)
func NewTables(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewTabCodeGen(out, Dialect, opts)
}

// NewFTables creates the faster table-driven C generator (-T1)
func NewFTables(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewFTabCodeGen(out, Dialect, opts)
}

// NewFlat creates the flat table C generator (-F0)
func NewFlat(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewFlatCodeGen(out, Dialect, opts)
}

// NewFFlat creates the faster flat table C generator (-F1)
func NewFFlat(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewFFlatCodeGen(out, Dialect, opts)
}

// NewGoto creates the goto-driven C generator (-G0)
func NewGoto(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewGotoCodeGen(out, Dialect, opts)
}

// NewFGoto creates the faster goto-driven C generator (-G1)
func NewFGoto(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewFGotoCodeGen(out, Dialect, opts)
}

// NewIpGoto creates the in-place goto C generator (-G2)
func NewIpGoto(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewIpGotoCodeGen(out, Dialect, opts)
}

// NewSplit creates the partitioned C generator (-P)
func NewSplit(out io.Writer, opts codegen.Options) codegen.Generator {
	return emit.NewSplitCodeGen(out, Dialect, opts)
}

// Register adds the C generators to r
func Register(r *codegen.Registry) {
	r.Register(hostlang.C, codegen.Tables, NewTables)
	r.Register(hostlang.C, codegen.FTables, NewFTables)
	r.Register(hostlang.C, codegen.Flat, NewFlat)
	r.Register(hostlang.C, codegen.FFlat, NewFFlat)
	r.Register(hostlang.C, codegen.Goto, NewGoto)
	r.Register(hostlang.C, codegen.FGoto, NewFGoto)
	r.Register(hostlang.C, codegen.IpGoto, NewIpGoto)
	r.Register(hostlang.C, codegen.Split, NewSplit)
}
