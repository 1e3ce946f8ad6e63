package driver

import (
	"context"
	"fmt"
	"io"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/diag"
	"github.com/okra-platform/rlgen/internal/output"
	"github.com/rs/zerolog"
)

// session answers the parser's callbacks for one run. It holds the run's
// single output binding.
type session struct {
	ctx      context.Context
	inv      *Invocation
	registry *codegen.Registry
	channel  *output.Channel

	dest    output.Destination
	binding *output.Binding
}

func newSession(ctx context.Context, inv *Invocation, registry *codegen.Registry, channel *output.Channel) *session {
	return &session{
		ctx:      ctx,
		inv:      inv,
		registry: registry,
		channel:  channel,
	}
}

func (s *session) reporter() *diag.Reporter {
	return s.inv.Reporter
}

// OpenOutput binds the output on first use and returns the bound sink on
// every later call. The destination is derived from sourceName and must not
// be the source or the intermediate file being read.
func (s *session) OpenOutput(sourceName string) (io.Writer, error) {
	if s.binding != nil {
		return s.binding.Writer(), nil
	}

	logger := zerolog.Ctx(s.ctx)
	s.dest = output.Resolve(sourceName, s.inv.OutputPath, s.inv.Lang)

	switch {
	case s.dest.Console:
		s.binding = s.channel.UseDefault()
	case s.dest.SameAsInput, s.dest.Names(s.inv.InputPath):
		s.reporter().Errorf("output file %q is the same as the input file", s.dest.Path)
		s.binding = s.channel.Discard()
	default:
		b, err := s.channel.Open(s.dest.Path)
		if err != nil {
			s.reporter().Errorf("error opening %s for writing", s.dest.Path)
			return nil, fmt.Errorf("%w: %w", ErrOutput, err)
		}
		s.binding = b
	}

	logger.Debug().Str("source", sourceName).Str("output", s.dest.String()).Msg("output bound")
	return s.binding.Writer(), nil
}

// MakeGenerator creates the generator for one definition, bound to the
// run's sink
func (s *session) MakeGenerator(sourceFileName, fsmName string, wantComplete bool) (codegen.Generator, error) {
	out, err := s.OpenOutput(sourceFileName)
	if err != nil {
		return nil, err
	}

	gen, err := s.registry.Create(s.inv.Lang, s.inv.Style, out,
		codegen.Options{
			NoLineDirectives: s.inv.NoLineDirectives,
			Partitions:       s.inv.Partitions,
		},
		codegen.Metadata{
			SourceFileName: sourceFileName,
			FSMName:        fsmName,
			WantComplete:   wantComplete,
		},
	)
	if err != nil {
		s.reporter().Errorf("internal error: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	zerolog.Ctx(s.ctx).Debug().
		Str("machine", fsmName).
		Stringer("lang", s.inv.Lang).
		Stringer("style", s.inv.Style).
		Msg("generator created")
	return gen, nil
}
