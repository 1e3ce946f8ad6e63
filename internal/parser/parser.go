// Package parser reads the XML intermediate form of compiled state machines
// and hands each machine to a generator obtained from its caller.
package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/diag"
	"github.com/okra-platform/rlgen/internal/fsm"
	"github.com/okra-platform/rlgen/internal/hostlang"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Element names of the intermediate form
const (
	rootElement = "ragel"
	defElement  = "ragel_def"
)

// Callbacks is what the parser needs from the run it belongs to
type Callbacks interface {
	// OpenOutput binds the run's output when the specification root is
	// recognised. sourceName is the ragel source the specification was
	// compiled from, or the input path when the root does not name one. A
	// returned error is fatal.
	OpenOutput(sourceName string) (io.Writer, error)

	// MakeGenerator creates the generator for one machine definition. A
	// returned error is fatal.
	MakeGenerator(sourceFileName, fsmName string, wantComplete bool) (codegen.Generator, error)
}

// Config describes one parse
type Config struct {
	// FileName is the input path, used in error positions and as the
	// source name when the root carries none. Empty means standard input.
	FileName string

	// Lang is the host language selected for the run
	Lang hostlang.Lang

	Callbacks Callbacks
	Reporter  *diag.Reporter
}

// Parse reads a whole specification from r. Structural problems are
// recorded in cfg.Reporter and parsing continues where it can; only
// fatal callback errors are returned.
func Parse(ctx context.Context, r io.Reader, cfg Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		cfg.Reporter.Errorf("could not read %s: %v", displayName(cfg.FileName), err)
		return nil
	}

	p := &parser{
		cfg:  cfg,
		name: displayName(cfg.FileName),
		data: data,
		dec:  xml.NewDecoder(bytes.NewReader(data)),
		log:  zerolog.Ctx(ctx),
	}
	p.dec.Strict = true
	p.dec.Entity = make(map[string]string)

	return p.run()
}

type parser struct {
	cfg    Config
	name   string
	data   []byte
	dec    *xml.Decoder
	log    *zerolog.Logger
	source string
	defs   int
}

func (p *parser) run() error {
	seenRoot := false
	for {
		offset := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			if !seenRoot {
				p.cfg.Reporter.ErrorAt(p.name, 0, "no <%s> specification found", rootElement)
			}
			return nil
		}
		if err != nil {
			p.syntaxError(err)
			return nil
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		line := p.line(offset)

		if seenRoot || se.Name.Local != rootElement {
			p.cfg.Reporter.ErrorAt(p.name, line, "expected a single <%s> root element, found <%s>", rootElement, se.Name.Local)
			return nil
		}
		seenRoot = true

		stop, err := p.root(se, line)
		if err != nil || stop {
			return err
		}
	}
}

// root handles the specification element and the definitions inside it.
// stop is set when parsing cannot continue.
func (p *parser) root(se xml.StartElement, line int) (stop bool, err error) {
	p.source = p.cfg.FileName
	if name := attr(se, "filename"); name != "" {
		p.source = name
	}

	if lang := attr(se, "lang"); lang != "" {
		parsed, perr := hostlang.Parse(lang)
		switch {
		case perr != nil:
			p.cfg.Reporter.ErrorAt(p.name, line, "%v", perr)
		case parsed != p.cfg.Lang:
			p.cfg.Reporter.ErrorAt(p.name, line, "specification is for host language %s, not %s", parsed, p.cfg.Lang)
		}
	}

	if _, err := p.cfg.Callbacks.OpenOutput(p.source); err != nil {
		return true, err
	}

	for {
		offset := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			p.syntaxError(err)
			return true, nil
		}

		switch t := tok.(type) {
		case xml.EndElement:
			p.log.Debug().Int("definitions", p.defs).Str("source", p.source).Msg("specification parsed")
			return false, nil
		case xml.StartElement:
			line := p.line(offset)
			if t.Name.Local != defElement {
				p.log.Debug().Str("element", t.Name.Local).Int("line", line).Msg("skipping unknown element")
				if err := p.dec.Skip(); err != nil {
					p.syntaxError(err)
					return true, nil
				}
				continue
			}
			stop, err := p.definition(t, line)
			if err != nil || stop {
				return true, err
			}
		}
	}
}

// definition handles one machine definition
func (p *parser) definition(se xml.StartElement, line int) (stop bool, err error) {
	name := attr(se, "name")
	complete := true
	if v := attr(se, "complete"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			p.cfg.Reporter.ErrorAt(p.name, line, "invalid complete attribute %q", v)
		} else {
			complete = b
		}
	}

	gen, err := p.cfg.Callbacks.MakeGenerator(p.source, name, complete)
	if err != nil {
		return true, err
	}
	p.defs++

	var def xmlDef
	if err := p.dec.DecodeElement(&def, &se); err != nil {
		p.syntaxError(err)
		return true, nil
	}

	m, err := def.machine(name)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		for _, e := range multierr.Errors(err) {
			p.cfg.Reporter.ErrorAt(p.name, line, "machine %s: %v", name, e)
		}
		return false, nil
	}

	p.log.Debug().Str("machine", name).Int("states", len(m.States)).Stringer("style", gen.Style()).Msg("generating machine")
	if err := gen.Generate(m); err != nil {
		p.cfg.Reporter.ErrorAt(p.name, line, "%v", err)
	}
	return false, nil
}

func (p *parser) syntaxError(err error) {
	var serr *xml.SyntaxError
	if errors.As(err, &serr) {
		p.cfg.Reporter.ErrorAt(p.name, serr.Line, "%s", serr.Msg)
		return
	}
	p.cfg.Reporter.ErrorAt(p.name, 0, "invalid specification: %v", err)
}

func displayName(fileName string) string {
	if fileName == "" {
		return "<stdin>"
	}
	return fileName
}

// line converts a byte offset of the input into a 1-based line number
func (p *parser) line(offset int64) int {
	if offset > int64(len(p.data)) {
		offset = int64(len(p.data))
	}
	return bytes.Count(p.data[:offset], []byte{'\n'}) + 1
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

type xmlDef struct {
	Machine *xmlMachine `xml:"machine"`
}

type xmlMachine struct {
	Actions    []xmlAction `xml:"action_list>action"`
	StartState *int        `xml:"start_state"`
	States     []xmlState  `xml:"state_list>state"`
}

type xmlAction struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
	Line int    `xml:"line,attr"`
	Code string `xml:",chardata"`
}

type xmlState struct {
	ID    int        `xml:"id,attr"`
	Final string     `xml:"final,attr"`
	Trans []xmlTrans `xml:"trans_list>t"`
}

type xmlTrans struct {
	Lo      int    `xml:"lo,attr"`
	Hi      int    `xml:"hi,attr"`
	Target  int    `xml:"target,attr"`
	Actions string `xml:"actions,attr"`
}

// machine converts the decoded definition into the structural model
func (d *xmlDef) machine(name string) (*fsm.Machine, error) {
	if d.Machine == nil {
		return nil, fmt.Errorf("missing <machine> element")
	}
	if d.Machine.StartState == nil {
		return nil, fmt.Errorf("missing <start_state> element")
	}

	m := &fsm.Machine{
		Name:       name,
		StartState: *d.Machine.StartState,
	}

	var err error
	for _, a := range d.Machine.Actions {
		m.Actions = append(m.Actions, fsm.Action{
			ID:   a.ID,
			Name: a.Name,
			Line: a.Line,
			Code: strings.TrimSpace(a.Code),
		})
	}

	for _, s := range d.Machine.States {
		final, ferr := flag(s.Final)
		if ferr != nil {
			err = multierr.Append(err, fmt.Errorf("state %d: invalid final attribute %q", s.ID, s.Final))
		}
		state := fsm.State{ID: s.ID, Final: final}
		for _, t := range s.Trans {
			acts, aerr := actionList(t.Actions)
			if aerr != nil {
				err = multierr.Append(err, fmt.Errorf("state %d: %w", s.ID, aerr))
			}
			state.Transitions = append(state.Transitions, fsm.Transition{
				Low:     t.Lo,
				High:    t.Hi,
				Target:  t.Target,
				Actions: acts,
			})
		}
		m.States = append(m.States, state)
	}

	return m, err
}

func flag(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func actionList(v string) ([]int, error) {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return nil, nil
	}
	acts := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid action reference %q", f)
		}
		acts = append(acts, id)
	}
	return acts, nil
}
