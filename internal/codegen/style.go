package codegen

import (
	"fmt"
	"strings"
)

// Style is a code layout strategy
type Style int

const (
	Tables Style = iota
	FTables
	Flat
	FFlat
	Goto
	FGoto
	IpGoto
	Split
)

type styleInfo struct {
	code string
	name string
	desc string
}

var styles = []styleInfo{
	Tables:  {"T0", "table", "Table driven FSM"},
	FTables: {"T1", "ftable", "Faster table driven FSM"},
	Flat:    {"F0", "flat", "Flat table driven FSM"},
	FFlat:   {"F1", "fflat", "Faster flat table-driven FSM"},
	Goto:    {"G0", "goto", "Goto-driven FSM"},
	FGoto:   {"G1", "fgoto", "Faster goto-driven FSM"},
	IpGoto:  {"G2", "ipgoto", "Really fast goto-driven FSM"},
	Split:   {"P", "split", "N-Way Split really fast goto-driven FSM"},
}

// AllStyles lists every style in flag order
func AllStyles() []Style {
	return []Style{Tables, FTables, Flat, FFlat, Goto, FGoto, IpGoto, Split}
}

// String returns the short flag code of the style (e.g. "T0")
func (s Style) String() string {
	if s < 0 || int(s) >= len(styles) {
		return fmt.Sprintf("Style(%d)", int(s))
	}
	return styles[s].code
}

// Name returns the long name of the style (e.g. "table")
func (s Style) Name() string {
	if s < 0 || int(s) >= len(styles) {
		return ""
	}
	return styles[s].name
}

// Description returns the usage text for the style
func (s Style) Description() string {
	if s < 0 || int(s) >= len(styles) {
		return ""
	}
	return styles[s].desc
}

// ParseStyle accepts either the flag code or the long name
func ParseStyle(v string) (Style, error) {
	v = strings.TrimSpace(v)
	for i, info := range styles {
		if strings.EqualFold(v, info.code) || strings.EqualFold(v, info.name) {
			return Style(i), nil
		}
	}
	return Tables, fmt.Errorf("unknown code style: %q", v)
}
