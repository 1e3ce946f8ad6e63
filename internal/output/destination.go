// Package output resolves where generated code goes and manages the single
// output artifact of a run, committing it only when the run succeeds.
package output

import (
	"path/filepath"
	"strings"

	"github.com/okra-platform/rlgen/internal/hostlang"
)

// ConsolePath selects the console sink when given as the output path
const ConsolePath = "-"

// headerInputExt marks an input whose output is a header
const headerInputExt = ".rh"

// Destination is the resolved output of a run
type Destination struct {
	// Path is the file to write; empty for the console
	Path string

	// Console is set when output goes to standard output
	Console bool

	// SameAsInput is set when Path names the source file
	SameAsInput bool
}

// Resolve decides the output path from the ragel source name. An explicit
// path is used unchanged. Otherwise the source's stem gets the host
// language's source extension, or its header extension when the source ends
// in .rh. With no source name and no explicit path the output goes to the
// console.
func Resolve(sourceName, explicit string, lang hostlang.Lang) Destination {
	if explicit == ConsolePath || (explicit == "" && sourceName == "") {
		return Destination{Console: true}
	}

	path := explicit
	if path == "" {
		ext := filepath.Ext(sourceName)
		stem := strings.TrimSuffix(sourceName, ext)
		if ext == headerInputExt {
			path = stem + lang.HeaderExt()
		} else {
			path = stem + lang.DefaultExt()
		}
	}

	d := Destination{Path: path}
	d.SameAsInput = d.Names(sourceName)
	return d
}

// Names reports whether the destination is the file at path
func (d Destination) Names(path string) bool {
	if d.Console || path == "" {
		return false
	}
	return filepath.Clean(d.Path) == filepath.Clean(path)
}

// String returns the path, or "<stdout>" for the console
func (d Destination) String() string {
	if d.Console {
		return "<stdout>"
	}
	return d.Path
}
