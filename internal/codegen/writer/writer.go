// Package writer buffers generated C-family source with indentation
// handling.
package writer

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides utilities for generating formatted code with proper indentation
type Writer struct {
	sb           strings.Builder
	indentLevel  int
	indentString string
	linePrefix   string
	needsIndent  bool
}

// NewWriter creates a new code writer with specified indentation string
func NewWriter(indentString string) *Writer {
	return &Writer{
		indentString: indentString,
		needsIndent:  true,
	}
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
	w.updatePrefix()
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.updatePrefix()
	}
}

// Write writes a string without adding a newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.linePrefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// Writef writes a formatted string without adding a newline
func (w *Writer) Writef(format string, args ...interface{}) {
	w.Write(fmt.Sprintf(format, args...))
}

// WriteLine writes a string and adds a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.Newline()
}

// WriteLinef writes a formatted string and adds a newline
func (w *Writer) WriteLinef(format string, args ...interface{}) {
	w.Writef(format, args...)
	w.Newline()
}

// WriteRaw writes a full line at column zero, ignoring indentation.
// Used for labels and preprocessor lines.
func (w *Writer) WriteRaw(s string) {
	if !w.needsIndent {
		w.Newline()
	}
	w.sb.WriteString(s)
	w.Newline()
}

// Newline adds a newline character
func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// BlankLine adds an empty line
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// IndentLevel returns the current indentation level
func (w *Writer) IndentLevel() int {
	return w.indentLevel
}

// String returns the generated code as a string
func (w *Writer) String() string {
	return w.sb.String()
}

// Bytes returns the generated code as a byte slice
func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}

// WriteTo copies the buffered code to out
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	n, err := io.WriteString(out, w.sb.String())
	return int64(n), err
}

// Reset clears the writer's content and resets indentation
func (w *Writer) Reset() {
	w.sb.Reset()
	w.indentLevel = 0
	w.linePrefix = ""
	w.needsIndent = true
}

// updatePrefix updates the line prefix based on current indentation
func (w *Writer) updatePrefix() {
	w.linePrefix = strings.Repeat(w.indentString, w.indentLevel)
}

// WriteBlock writes content inside a block with proper indentation
// Example: WriteBlock("while ( 1 ) {", "}", func() { w.WriteLine("break;") })
func (w *Writer) WriteBlock(opener, closer string, content func()) {
	w.WriteLine(opener)
	w.Indent()
	content()
	w.Dedent()
	w.WriteLine(closer)
}

// WriteComment writes a single-line block comment
func (w *Writer) WriteComment(comment string) {
	w.WriteLinef("/* %s */", comment)
}

// WriteLineDirective writes a #line directive at column zero
func (w *Writer) WriteLineDirective(line int, file string) {
	w.WriteRaw(fmt.Sprintf("#line %d \"%s\"", line, escapeDirective(file)))
}

// WriteList writes comma separated items, perLine to a line, one level deeper
func (w *Writer) WriteList(items []string, perLine int) {
	if perLine <= 0 {
		perLine = 8
	}
	w.Indent()
	for i := 0; i < len(items); i += perLine {
		end := min(i+perLine, len(items))
		line := strings.Join(items[i:end], ", ")
		if end < len(items) {
			line += ","
		}
		w.WriteLine(line)
	}
	w.Dedent()
}

func escapeDirective(file string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(file)
}
