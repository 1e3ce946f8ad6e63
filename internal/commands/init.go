package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/renameio/v2"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/codegen/builtin"
	"github.com/okra-platform/rlgen/internal/config"
)

type InitOptions struct {
	Lang           string
	Style          string
	Partitions     int
	LineDirectives bool
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Getwd() (string, error)
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(name, data, perm)
}

func (fs *osFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

type InitCommand struct {
	filesystem FileSystem
	registry   *codegen.Registry
	out        io.Writer
	force      bool
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(force bool) *InitCommand {
	return &InitCommand{
		filesystem: &osFileSystem{},
		registry:   builtin.Registry(),
		out:        os.Stdout,
		force:      force,
	}
}

func (c *Controller) Init(ctx context.Context, force bool) error {
	cmd := NewInitCommand(force)
	cmd.out = c.stdout()
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	dir, err := ic.filesystem.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := ic.filesystem.Stat(path); err == nil && !ic.force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}

	var options *InitOptions

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	cfg := &config.Config{
		Lang:             options.Lang,
		Style:            options.Style,
		Partitions:       options.Partitions,
		NoLineDirectives: !options.LineDirectives,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := ic.filesystem.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(ic.out, "✅ Wrote %s (%s, -%s)\n", path, cfg.Lang, cfg.Style)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	defaults := config.Default()
	lang := defaults.Lang
	style := defaults.Style
	partitions := strconv.Itoa(defaults.Partitions)
	lineDirectives := true

	form := ic.createInitForm(&lang, &style, &partitions, &lineDirectives)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		// Normal execution
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	n, err := parsePartitions(partitions)
	if err != nil {
		return nil, err
	}

	return &InitOptions{
		Lang:           lang,
		Style:          style,
		Partitions:     n,
		LineDirectives: lineDirectives,
	}, nil
}

func (ic *InitCommand) createInitForm(lang, style, partitions *string, lineDirectives *bool) *huh.Form {
	var langOptions []huh.Option[string]
	for _, l := range ic.registry.Languages() {
		langOptions = append(langOptions, huh.NewOption(l.String(), l.String()))
	}

	var styleOptions []huh.Option[string]
	for _, s := range codegen.AllStyles() {
		label := fmt.Sprintf("-%-2s %s", s, s.Description())
		styleOptions = append(styleOptions, huh.NewOption(label, s.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Host language").
				Description("Language of the generated state machines").
				Options(langOptions...).
				Value(lang),

			huh.NewSelect[string]().
				Title("Code style").
				Description("Layout of the generated state machines").
				Options(styleOptions...).
				Value(style),

			huh.NewInput().
				Title("Partitions").
				Description("Number of partitions for the split style (-P)").
				Value(partitions).
				Validate(func(s string) error {
					_, err := parsePartitions(s)
					return err
				}),

			huh.NewConfirm().
				Title("Emit #line directives?").
				Value(lineDirectives),
		),
	)
}

func parsePartitions(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("partitions must be a number")
	}
	if n < 1 {
		return 0, fmt.Errorf("partitions must be at least 1")
	}
	return n, nil
}
