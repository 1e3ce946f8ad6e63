// Package diag accumulates the errors of one generator run.
//
// Errors are printed to the diagnostic stream as soon as they are recorded
// and counted; callers decide at fixed checkpoints whether the run failed.
package diag

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// Reporter records errors for a single invocation
type Reporter struct {
	out   io.Writer
	prog  string
	count int
	errs  error
}

// NewReporter creates a reporter that prefixes every message with prog
func NewReporter(out io.Writer, prog string) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out, prog: prog}
}

// Errorf records an error that is not tied to an input position
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.record(fmt.Sprintf(format, args...))
}

// ErrorAt records an error at file:line. A non-positive line omits the line.
func (r *Reporter) ErrorAt(file string, line int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch {
	case file != "" && line > 0:
		msg = fmt.Sprintf("%s:%d: %s", file, line, msg)
	case file != "":
		msg = fmt.Sprintf("%s: %s", file, msg)
	}
	r.record(msg)
}

func (r *Reporter) record(msg string) {
	r.count++
	r.errs = multierr.Append(r.errs, errors.New(msg))
	if r.prog != "" {
		fmt.Fprintf(r.out, "%s: %s\n", r.prog, msg)
	} else {
		fmt.Fprintln(r.out, msg)
	}
}

// Count returns the number of errors recorded so far
func (r *Reporter) Count() int {
	return r.count
}

// Err returns all recorded errors combined, or nil
func (r *Reporter) Err() error {
	return r.errs
}

// Errors returns the recorded errors in order
func (r *Reporter) Errors() []error {
	return multierr.Errors(r.errs)
}
