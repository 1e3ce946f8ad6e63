// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/builtin"
	"github.com/okra-platform/rlgen/internal/config"
	"github.com/okra-platform/rlgen/internal/diag"
	"github.com/okra-platform/rlgen/internal/driver"
	"github.com/okra-platform/rlgen/internal/hostlang"
	"github.com/okra-platform/rlgen/internal/output"
)

// ProgramName prefixes every diagnostic
const ProgramName = "rlgen-cd"

// ErrUsage is returned for invalid combinations of flags
var ErrUsage = errors.New("usage error")

// reportedError wraps an error already printed to the diagnostic stream
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err has already been printed to the diagnostic
// stream, so the caller only has to set the exit status
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r) || driver.Reported(err)
}

// Flags holds the command-line values. Zero values defer to rlgen.json.
type Flags struct {
	LogLevel   string
	ConfigPath string

	Output           string
	HostLang         string
	Styles           []codegen.Style
	Partitions       int
	NoLineDirectives bool
}

type Controller struct {
	Flags *Flags

	// Stdout and Stderr default to the process streams
	Stdout io.Writer
	Stderr io.Writer
}

// Generate runs the code generator on input. An empty input reads
// standard input.
func (c *Controller) Generate(ctx context.Context, input string) error {
	logger := zerolog.Ctx(ctx)
	reporter := diag.NewReporter(c.stderr(), ProgramName)

	cfg, err := c.loadConfig()
	if err != nil {
		reporter.Errorf("%v", err)
		return reportedError{err: err}
	}

	inv, err := c.invocation(cfg, input)
	if err != nil {
		reporter.Errorf("%v", err)
		return reportedError{err: err}
	}
	inv.Reporter = reporter

	logger.Debug().
		Str("input", input).
		Stringer("lang", inv.Lang).
		Stringer("style", inv.Style).
		Int("partitions", inv.Partitions).
		Msg("starting code generation")

	d := driver.New(inv, builtin.Registry(), output.NewChannel(c.stdout()))
	return d.Run(ctx)
}

// loadConfig reads the explicit config file, or searches for rlgen.json.
// No file means defaults.
func (c *Controller) loadConfig() (*config.Config, error) {
	if c.Flags.ConfigPath != "" {
		return config.LoadConfigFromPath(c.Flags.ConfigPath)
	}
	cfg, _, err := config.LoadConfig()
	if errors.Is(err, config.ErrNotFound) {
		return config.Default(), nil
	}
	return cfg, err
}

// invocation merges the flags over the configuration
func (c *Controller) invocation(cfg *config.Config, input string) (*driver.Invocation, error) {
	f := c.Flags

	langName := cfg.Lang
	if f.HostLang != "" {
		langName = f.HostLang
	}
	lang, err := hostlang.Parse(langName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	var style codegen.Style
	switch len(f.Styles) {
	case 0:
		if style, err = cfg.CodeStyle(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}
	case 1:
		style = f.Styles[0]
	default:
		return nil, fmt.Errorf("%w: only one code style may be given, got %d", ErrUsage, len(f.Styles))
	}

	partitions := cfg.Partitions
	if f.Partitions != 0 {
		partitions = f.Partitions
	}
	if partitions < 1 {
		return nil, fmt.Errorf("%w: partitions must be at least 1, got %d", ErrUsage, partitions)
	}

	return &driver.Invocation{
		InputPath:        input,
		OutputPath:       f.Output,
		Lang:             lang,
		Style:            style,
		Partitions:       partitions,
		NoLineDirectives: f.NoLineDirectives || cfg.NoLineDirectives,
	}, nil
}

func (c *Controller) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Controller) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}
