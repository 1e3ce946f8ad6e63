// Package builtin assembles the registry of the generators shipped with
// rlgen-cd: eight layouts each for C and D.
package builtin

import (
	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/clang"
	"github.com/okra-platform/rlgen/internal/codegen/dlang"
)

// Registry returns a new registry with every built-in generator registered
func Registry() *codegen.Registry {
	r := codegen.NewRegistry()
	clang.Register(r)
	dlang.Register(r)
	return r
}
