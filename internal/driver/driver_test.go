package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/builtin"
	"github.com/okra-platform/rlgen/internal/codegen/clang"
	"github.com/okra-platform/rlgen/internal/diag"
	"github.com/okra-platform/rlgen/internal/hostlang"
	"github.com/okra-platform/rlgen/internal/output"
	"github.com/okra-platform/rlgen/internal/parser"
	"github.com/okra-platform/rlgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// 1. Successful runs commit the derived or explicit output
// 2. Any recorded error removes the output, even after bytes were written
// 3. Unsupported languages and unopenable input stop before output exists
// 4. Fatal errors abort parsing
// 5. Console and standard input
// 6. Output is named after, and never replaces, the ragel source

type result struct {
	err    error
	stderr string
	stdout string
	inv    *Invocation
}

func run(t *testing.T, inv *Invocation, opts ...Option) result {
	t.Helper()
	var stderr, stdout bytes.Buffer
	inv.Reporter = diag.NewReporter(&stderr, "rlgen-cd")
	d := New(inv, builtin.Registry(), output.NewChannel(&stdout), opts...)
	err := d.Run(context.Background())
	return result{err: err, stderr: stderr.String(), stdout: stdout.String(), inv: inv}
}

func failParse(t *testing.T) Option {
	return WithParseFunc(func(context.Context, io.Reader, parser.Config) error {
		t.Error("parser must not run")
		return nil
	})
}

func TestRun_HeaderInputTables(t *testing.T) {
	// Test: a specification compiled from foo.rh with C and tables writes foo.h
	dir := t.TempDir()
	testutil.Chdir(t, dir)
	input := testutil.WriteFile(t, dir, "spec.xml", testutil.WithSource(testutil.NumberSpec, "foo.rh"))

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.Tables})

	require.NoError(t, res.err)
	assert.Empty(t, res.stderr)
	data, err := os.ReadFile(filepath.Join(dir, "foo.h"))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, string(data), "int number_execute( const unsigned char *p, const unsigned char *pe )")
	assert.Contains(t, string(data), `#line 7 "foo.rh"`)
	assert.Equal(t, []string{"foo.h", "spec.xml"}, testutil.DirEntries(t, dir))
}

func TestRun_DFasterGoto(t *testing.T) {
	// Test: a specification compiled from foo.rl with D and faster goto writes foo.d
	dir := t.TempDir()
	testutil.Chdir(t, dir)
	input := testutil.WriteFile(t, dir, "foo.xml", testutil.WithSource(testutil.NumberSpec, "foo.rl"))

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.D, Style: codegen.FGoto, NoLineDirectives: true})

	require.NoError(t, res.err)
	data, err := os.ReadFile(filepath.Join(dir, "foo.d"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "(-G1)")
	assert.Contains(t, string(data), "int number_execute( const(ubyte)* p, const(ubyte)* pe )")
	assert.NotContains(t, string(data), "#line")
}

func TestRun_StructuralErrorDiscardsOutput(t *testing.T) {
	tests := []struct {
		name  string
		stale bool
	}{
		{name: "fresh"},
		{name: "stale output from an earlier run", stale: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.Chdir(t, dir)
			input := testutil.WriteFile(t, dir, "bad.xml", testutil.BadSpec)
			if tt.stale {
				testutil.WriteFile(t, dir, "bad.c", "stale")
			}

			res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.Flat})

			require.ErrorIs(t, res.err, ErrFailed)
			assert.Equal(t, 1, res.inv.Reporter.Count())
			assert.Contains(t, res.stderr, "machine broken: state 0: transition to undefined state 5")

			// Test: the good machine was written to the sink, yet nothing survives
			_, err := os.Stat(filepath.Join(dir, "bad.c"))
			assert.True(t, os.IsNotExist(err))
			assert.Equal(t, []string{"bad.xml"}, testutil.DirEntries(t, dir))
		})
	}
}

func TestRun_OutputSameAsInput(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "same.rl", testutil.NumberSpec)

	res := run(t, &Invocation{InputPath: input, OutputPath: input, Lang: hostlang.C, Style: codegen.Tables})

	require.ErrorIs(t, res.err, ErrFailed)
	assert.Contains(t, res.stderr, "is the same as the input file")

	// Test: the input is untouched and nothing else is written
	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, testutil.NumberSpec, string(data))
	assert.Equal(t, []string{"same.rl"}, testutil.DirEntries(t, dir))
}

func TestRun_OutputSameAsSource(t *testing.T) {
	dir := t.TempDir()
	testutil.Chdir(t, dir)
	source := testutil.WriteFile(t, dir, "foo.rl", "main := digit+;\n")
	input := testutil.WriteFile(t, dir, "foo.xml", testutil.WithSource(testutil.NumberSpec, "foo.rl"))

	res := run(t, &Invocation{InputPath: input, OutputPath: "foo.rl", Lang: hostlang.C, Style: codegen.Tables})

	require.ErrorIs(t, res.err, ErrFailed)
	assert.Equal(t, 1, res.inv.Reporter.Count())
	assert.Equal(t, "rlgen-cd: output file \"foo.rl\" is the same as the input file\n", res.stderr)

	// Test: the ragel source keeps its contents
	data, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, "main := digit+;\n", string(data))
	assert.Equal(t, []string{"foo.rl", "foo.xml"}, testutil.DirEntries(t, dir))
}

func TestRun_ErrorsAccumulateUntilCheckpoint(t *testing.T) {
	// Test: same-as-input does not stop parsing; later errors are reported too
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "bad.rl", testutil.BadSpec)

	res := run(t, &Invocation{InputPath: input, OutputPath: input, Lang: hostlang.C, Style: codegen.Goto})

	require.ErrorIs(t, res.err, ErrFailed)
	assert.Equal(t, 2, res.inv.Reporter.Count())
	lines := strings.Split(strings.TrimSpace(res.stderr), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "is the same as the input file")
	assert.Contains(t, lines[1], "undefined state 5")
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	for _, lang := range []hostlang.Lang{hostlang.Java, hostlang.Ruby, hostlang.CSharp, hostlang.Unknown} {
		t.Run(lang.String(), func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "foo.rl")

			opened := false
			res := run(t, &Invocation{InputPath: input, Lang: lang, Style: codegen.Tables},
				failParse(t),
				WithOpener(func(string) (io.ReadCloser, error) {
					opened = true
					return nil, errors.New("unexpected")
				}),
			)

			require.ErrorIs(t, res.err, ErrUnsupportedLang)
			assert.Equal(t, "rlgen-cd: this code generator is for C and D only\n", res.stderr)
			assert.False(t, opened, "input must not be opened")
			assert.Empty(t, testutil.DirEntries(t, dir))
		})
	}
}

func TestRun_InputOpenFails(t *testing.T) {
	// Test: no output destination is created when the input cannot be read
	dir := t.TempDir()
	input := filepath.Join(dir, "missing.rl")

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.Tables}, failParse(t))

	require.ErrorIs(t, res.err, ErrFailed)
	assert.Equal(t, "rlgen-cd: could not open "+input+" for reading\n", res.stderr)
	assert.Empty(t, testutil.DirEntries(t, dir))
}

func TestRun_UnopenableOutputIsFatal(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "foo.rl", testutil.BadSpec)
	out := filepath.Join(dir, "missing", "foo.c")

	res := run(t, &Invocation{InputPath: input, OutputPath: out, Lang: hostlang.C, Style: codegen.Tables})

	require.ErrorIs(t, res.err, ErrOutput)
	// Test: parsing stops, so the broken machine is never reported
	assert.Equal(t, 1, res.inv.Reporter.Count())
	assert.Equal(t, "rlgen-cd: error opening "+out+" for writing\n", res.stderr)
}

func TestRun_MissingGeneratorIsInternal(t *testing.T) {
	dir := t.TempDir()
	testutil.Chdir(t, dir)
	input := testutil.WriteFile(t, dir, "foo.xml", testutil.NumberSpec)

	registry := codegen.NewRegistry()
	registry.Register(hostlang.C, codegen.Tables, clang.NewTables)

	var stderr bytes.Buffer
	inv := &Invocation{
		InputPath: input,
		Lang:      hostlang.C,
		Style:     codegen.IpGoto,
		Reporter:  diag.NewReporter(&stderr, "rlgen-cd"),
	}
	err := New(inv, registry, output.NewChannel(io.Discard)).Run(context.Background())

	require.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, codegen.ErrNoGenerator)
	assert.Contains(t, stderr.String(), "internal error")
	// Test: the staged output is cleaned up
	assert.Equal(t, []string{"foo.xml"}, testutil.DirEntries(t, dir))
}

func TestRun_Console(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "foo.rl", testutil.NumberSpec)

	res := run(t, &Invocation{InputPath: input, OutputPath: output.ConsolePath, Lang: hostlang.C, Style: codegen.Split, Partitions: 2})

	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "static int number_part1(")
	assert.Equal(t, []string{"foo.rl"}, testutil.DirEntries(t, dir))
}

func TestRun_StandardInput(t *testing.T) {
	t.Run("without a source name", func(t *testing.T) {
		res := run(t, &Invocation{Lang: hostlang.D, Style: codegen.Flat}, WithStdin(strings.NewReader(testutil.Spec("word"))))

		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "static const int word_start = 1;")
		assert.Contains(t, res.stdout, "from <stdin>")
	})

	t.Run("source name derives the output", func(t *testing.T) {
		dir := t.TempDir()
		testutil.Chdir(t, dir)

		res := run(t, &Invocation{Lang: hostlang.D, Style: codegen.Flat}, WithStdin(strings.NewReader(testutil.NumberSpec)))

		require.NoError(t, res.err)
		assert.Empty(t, res.stdout)
		data, err := os.ReadFile(filepath.Join(dir, "number.d"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "static const int number_start = 1;")
		assert.Contains(t, string(data), "from number.rl")
	})
}

func TestRun_DefinitionsInOrder(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "two.rl", testutil.Spec("first", "second"))

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.FTables})

	require.NoError(t, res.err)
	data, err := os.ReadFile(filepath.Join(dir, "two.c"))
	require.NoError(t, err)
	first := strings.Index(string(data), "int first_execute(")
	second := strings.Index(string(data), "int second_execute(")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}

func TestRun_EmptySpecificationCreatesNoOutput(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "empty.rl", "")

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.Tables})

	require.ErrorIs(t, res.err, ErrFailed)
	assert.Contains(t, res.stderr, "no <ragel> specification found")
	assert.Equal(t, []string{"empty.rl"}, testutil.DirEntries(t, dir))
}

func TestRun_GeneratorsShareTheChannelSink(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteFile(t, dir, "foo.rl", testutil.NumberSpec)

	var sinks []io.Writer
	parse := func(ctx context.Context, r io.Reader, cfg parser.Config) error {
		w, err := cfg.Callbacks.OpenOutput(cfg.FileName)
		require.NoError(t, err)
		for _, name := range []string{"a", "b"} {
			gen, err := cfg.Callbacks.MakeGenerator("foo.rl", name, false)
			require.NoError(t, err)
			assert.Equal(t, name, gen.Metadata().FSMName)
			assert.False(t, gen.Metadata().WantComplete)
			sinks = append(sinks, gen.Sink())
		}
		sinks = append(sinks, w)
		return nil
	}

	res := run(t, &Invocation{InputPath: input, Lang: hostlang.C, Style: codegen.Tables}, WithParseFunc(parse))

	require.NoError(t, res.err)
	require.Len(t, sinks, 3)
	assert.Same(t, sinks[2], sinks[0])
	assert.Same(t, sinks[2], sinks[1])
}

type closeFailer struct {
	io.Reader
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("close failed")
}

func TestRun_InputCloseErrorIgnored(t *testing.T) {
	in := &closeFailer{Reader: strings.NewReader(testutil.Spec("word"))}

	res := run(t, &Invocation{InputPath: "word.xml", OutputPath: output.ConsolePath, Lang: hostlang.C, Style: codegen.Goto},
		WithOpener(func(string) (io.ReadCloser, error) { return in, nil }),
	)

	// Test: the input is closed and a failing close does not fail the run
	require.NoError(t, res.err)
	assert.True(t, in.closed)
	assert.Contains(t, res.stdout, "int word_execute(")
}
