package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
	"go.uber.org/multierr"
)

// DefaultPerm is the mode of committed output files
const DefaultPerm fs.FileMode = 0o644

type sinkKind int

const (
	sinkFile sinkKind = iota
	sinkConsole
	sinkDiscard
)

// Binding is an open output sink. Generators write to Writer; the channel
// decides at Finalize whether the written bytes survive.
type Binding struct {
	path    string
	kind    sinkKind
	w       *bufio.Writer
	pending *renameio.PendingFile
	done    bool
}

// Path returns the output path, empty for the console and discard sinks
func (b *Binding) Path() string { return b.path }

// Writer returns the sink generators write to
func (b *Binding) Writer() io.Writer { return b.w }

// Console reports whether the binding writes to standard output
func (b *Binding) Console() bool { return b.kind == sinkConsole }

// Finalized reports whether Finalize has run for the binding
func (b *Binding) Finalized() bool { return b.done }

// Channel opens output bindings
type Channel struct {
	// Stdout is the console sink, os.Stdout when nil
	Stdout io.Writer

	// Perm is the mode of committed files, DefaultPerm when zero
	Perm fs.FileMode
}

// NewChannel creates a channel writing console output to stdout
func NewChannel(stdout io.Writer) *Channel {
	return &Channel{Stdout: stdout, Perm: DefaultPerm}
}

// Open stages a file at path. Nothing is visible at path until the binding
// is finalized as succeeded.
func (c *Channel) Open(path string) (*Binding, error) {
	perm := c.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", path, err)
	}
	return &Binding{
		path:    path,
		kind:    sinkFile,
		w:       bufio.NewWriter(pending),
		pending: pending,
	}, nil
}

// UseDefault binds the console
func (c *Channel) UseDefault() *Binding {
	var out io.Writer = os.Stdout
	if c.Stdout != nil {
		out = c.Stdout
	}
	return &Binding{kind: sinkConsole, w: bufio.NewWriter(out)}
}

// Discard binds a sink that drops everything written to it
func (c *Channel) Discard() *Binding {
	return &Binding{kind: sinkDiscard, w: bufio.NewWriter(io.Discard)}
}

// Finalize ends the binding. On success the staged file replaces the
// destination; on failure it is removed along with any earlier artifact at
// the destination. Console output is flushed either way. Calling Finalize
// again is a no-op.
func (c *Channel) Finalize(b *Binding, succeeded bool) error {
	if b == nil || b.done {
		return nil
	}
	b.done = true

	switch b.kind {
	case sinkConsole:
		if err := b.w.Flush(); err != nil {
			return fmt.Errorf("failed to flush output: %w", err)
		}
		return nil
	case sinkDiscard:
		return nil
	}

	if succeeded {
		if err := b.w.Flush(); err != nil {
			return multierr.Append(fmt.Errorf("failed to write %s: %w", b.path, err), b.pending.Cleanup())
		}
		if err := b.pending.CloseAtomicallyReplace(); err != nil {
			return multierr.Append(fmt.Errorf("failed to commit %s: %w", b.path, err), b.pending.Cleanup())
		}
		return nil
	}

	if err := b.pending.Cleanup(); err != nil {
		return fmt.Errorf("failed to discard staged %s: %w", b.path, err)
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", b.path, err)
	}
	return nil
}
