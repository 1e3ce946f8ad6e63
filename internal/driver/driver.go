// Package driver runs one code generation invocation: it checks the host
// language, opens the input, lets the parser call back into output and
// generator setup, and commits or discards the output depending on whether
// any error was recorded.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/diag"
	"github.com/okra-platform/rlgen/internal/hostlang"
	"github.com/okra-platform/rlgen/internal/output"
	"github.com/okra-platform/rlgen/internal/parser"
	"github.com/rs/zerolog"
)

var (
	// ErrFailed is returned when errors were recorded during the run
	ErrFailed = errors.New("code generation failed")

	// ErrUnsupportedLang is returned when no generator serves the host language
	ErrUnsupportedLang = errors.New("unsupported host language")

	// ErrOutput is returned when the output file cannot be opened
	ErrOutput = errors.New("cannot open output")

	// ErrInternal is returned when the registry has no generator for a
	// language and style it claims to support
	ErrInternal = errors.New("internal error")
)

// Invocation is everything one run needs. Only Reporter changes while the
// run is in progress.
type Invocation struct {
	// InputPath is the specification to read; empty reads standard input
	InputPath string

	// OutputPath overrides the derived output path; "-" writes to the console
	OutputPath string

	Lang             hostlang.Lang
	Style            codegen.Style
	Partitions       int
	NoLineDirectives bool

	Reporter *diag.Reporter
}

// ParseFunc reads a specification, calling back into cfg.Callbacks
type ParseFunc func(ctx context.Context, r io.Reader, cfg parser.Config) error

// Driver runs an invocation
type Driver struct {
	inv      *Invocation
	registry *codegen.Registry
	channel  *output.Channel
	parse    ParseFunc
	stdin    io.Reader
	open     func(name string) (io.ReadCloser, error)
}

// Option is a functional option for configuring a Driver
type Option func(*Driver)

// WithParseFunc replaces the XML parser
func WithParseFunc(parse ParseFunc) Option {
	return func(d *Driver) {
		d.parse = parse
	}
}

// WithStdin sets the reader used when the invocation has no input path
func WithStdin(r io.Reader) Option {
	return func(d *Driver) {
		d.stdin = r
	}
}

// WithOpener replaces os.Open for the input file
func WithOpener(open func(name string) (io.ReadCloser, error)) Option {
	return func(d *Driver) {
		d.open = open
	}
}

// New creates a driver for inv
func New(inv *Invocation, registry *codegen.Registry, channel *output.Channel, opts ...Option) *Driver {
	d := &Driver{
		inv:      inv,
		registry: registry,
		channel:  channel,
		parse:    parser.Parse,
		stdin:    os.Stdin,
		open: func(name string) (io.ReadCloser, error) {
			f, err := os.Open(name)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.inv.Reporter == nil {
		d.inv.Reporter = diag.NewReporter(os.Stderr, "")
	}
	return d
}

// Run executes the invocation. Errors are checked at two points only:
// after the input is opened and after parsing. Unopenable output and
// internal errors abort at once.
func (d *Driver) Run(ctx context.Context) error {
	inv := d.inv
	logger := zerolog.Ctx(ctx)

	if !d.registry.Supports(inv.Lang) {
		inv.Reporter.Errorf("this code generator is for C and D only")
		return fmt.Errorf("%w: %s", ErrUnsupportedLang, inv.Lang)
	}

	in, err := d.openInput()
	if err != nil {
		inv.Reporter.Errorf("could not open %s for reading", inv.InputPath)
		logger.Debug().Err(err).Str("input", inv.InputPath).Msg("input open failed")
	}
	if inv.Reporter.Count() > 0 {
		if in != nil {
			in.Close()
		}
		return d.failed()
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			logger.Debug().Err(cerr).Str("input", inv.InputPath).Msg("failed to close input")
		}
	}()

	s := newSession(ctx, inv, d.registry, d.channel)
	err = d.parse(ctx, in, parser.Config{
		FileName:  inv.InputPath,
		Lang:      inv.Lang,
		Callbacks: s,
		Reporter:  inv.Reporter,
	})
	if err != nil {
		if s.binding != nil {
			if ferr := d.channel.Finalize(s.binding, false); ferr != nil {
				logger.Debug().Err(ferr).Msg("discarding output after fatal error")
			}
		}
		return err
	}

	if s.binding != nil {
		succeeded := inv.Reporter.Count() == 0
		if err := d.channel.Finalize(s.binding, succeeded); err != nil {
			inv.Reporter.Errorf("%v", err)
		}
		logger.Debug().
			Str("output", s.dest.String()).
			Bool("committed", succeeded && inv.Reporter.Count() == 0).
			Msg("output finalized")
	}

	if inv.Reporter.Count() > 0 {
		return d.failed()
	}
	return nil
}

func (d *Driver) failed() error {
	return fmt.Errorf("%w: %w", ErrFailed, d.inv.Reporter.Err())
}

func (d *Driver) openInput() (io.ReadCloser, error) {
	if d.inv.InputPath == "" {
		return io.NopCloser(d.stdin), nil
	}
	return d.open(d.inv.InputPath)
}

// Reported reports whether err was already printed through the
// invocation's reporter
func Reported(err error) bool {
	return errors.Is(err, ErrFailed) ||
		errors.Is(err, ErrUnsupportedLang) ||
		errors.Is(err, ErrOutput) ||
		errors.Is(err, ErrInternal)
}
