package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/okra-platform/rlgen/internal/codegen"
	"github.com/okra-platform/rlgen/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

// styleFlags declares one boolean flag per code style except split, which
// takes the partition count
func styleFlags() []cli.Flag {
	var flags []cli.Flag
	for _, s := range codegen.AllStyles() {
		if s == codegen.Split {
			continue
		}
		flags = append(flags, &cli.BoolFlag{
			Name:     s.String(),
			Usage:    s.Description(),
			Category: "code style",
		})
	}
	return append(flags, &cli.IntFlag{
		Name:     codegen.Split.String(),
		Usage:    codegen.Split.Description() + " with `N` partitions",
		Category: "code style",
	})
}

// selectedStyles returns the style flags given on the command line
func selectedStyles(c *cli.Command) []codegen.Style {
	var styles []codegen.Style
	for _, s := range codegen.AllStyles() {
		if s == codegen.Split {
			if c.IsSet(s.String()) {
				styles = append(styles, s)
			}
			continue
		}
		if c.Bool(s.String()) {
			styles = append(styles, s)
		}
	}
	return styles
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error, fatal, panic)",
			Sources: cli.EnvVars("RLGEN_LOG_LEVEL"),
			Value:   "panic",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "read defaults from `FILE` instead of searching for rlgen.json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write output to `FILE`, - for standard output",
		},
		&cli.StringFlag{
			Name:    "host-lang",
			Aliases: []string{"x"},
			Usage:   "host language of the generated code (C or D)",
		},
		&cli.BoolFlag{
			Name:    "no-line-directives",
			Aliases: []string{"L"},
			Usage:   "inhibit writing of #line directives",
		},
	}
	flags = append(flags, styleFlags()...)

	app := &cli.Command{
		Name:      "rlgen-cd",
		Usage:     "generate C or D state machine code from the ragel intermediate format",
		UsageText: "rlgen-cd [options] [file]",
		Version:   build(),
		Flags:     flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			return log.Logger.WithContext(ctx), nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 1 {
				return fmt.Errorf("%w: expected at most one input file, got %d", commands.ErrUsage, c.Args().Len())
			}

			ctrl.Flags.LogLevel = c.String("log-level")
			ctrl.Flags.ConfigPath = c.String("config")
			ctrl.Flags.Output = c.String("output")
			ctrl.Flags.HostLang = c.String("host-lang")
			ctrl.Flags.NoLineDirectives = c.Bool("no-line-directives")
			ctrl.Flags.Styles = selectedStyles(c)
			ctrl.Flags.Partitions = int(c.Int(codegen.Split.String()))

			return ctrl.Generate(ctx, c.Args().First())
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create an rlgen.json project file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing rlgen.json",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx, c.Bool("force"))
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Debug().Err(err).Msg("rlgen-cd failed")
		if !commands.Reported(err) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", commands.ProgramName, err)
		}
		os.Exit(1)
	}
}
