// Package codegen defines the contract between the structural parser and the
// family of state machine code generators, and the registry that selects a
// generator for a (host language, style) pair.
package codegen

import (
	"io"

	"github.com/okra-platform/rlgen/internal/fsm"
	"github.com/okra-platform/rlgen/internal/hostlang"
)

// Generator is the interface that all code generators must implement
type Generator interface {
	// SetMetadata attaches the per-definition metadata. The registry calls it
	// before the generator sees any structural data.
	SetMetadata(meta Metadata)

	// Metadata returns the metadata set by the registry
	Metadata() Metadata

	// Sink returns the writer the generator was bound to at construction.
	// Generators never close it.
	Sink() io.Writer

	// Lang returns the host language of the generated code
	Lang() hostlang.Lang

	// Style returns the code layout strategy
	Style() Style

	// Generate writes source text for the machine to the sink
	Generate(m *fsm.Machine) error
}

// Metadata describes the definition a generator is emitting
type Metadata struct {
	// SourceFileName is the specification file the machine came from
	SourceFileName string

	// FSMName is the name of the machine definition
	FSMName string

	// WantComplete makes unmatched keys move to the error state instead of
	// stopping in the current state
	WantComplete bool
}

// Options contains the invocation-wide code generation options
type Options struct {
	// NoLineDirectives suppresses #line annotations before action code
	NoLineDirectives bool

	// Partitions is the partition count for the split style
	Partitions int
}
