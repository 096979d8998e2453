package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dgallion1/deckgest/internal/config"
	"github.com/dgallion1/deckgest/internal/pipeline"
)

// deps holds what commands need from the outside world so tests can swap
// in fakes.
type deps struct {
	loadConfig func() (config.Config, error)
	newBuilder func(cfg config.Config, log *slog.Logger) *pipeline.Builder
	stdin      io.Reader
	stdinIsTTY func() bool
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.Load,
		newBuilder: func(cfg config.Config, log *slog.Logger) *pipeline.Builder {
			b, _ := pipeline.NewBuilder(cfg, log)
			return b
		},
		stdin: os.Stdin,
		stdinIsTTY: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
}

// cli is the state shared by every subcommand.
type cli struct {
	deps    deps
	verbose bool
	quiet   bool
	log     *slog.Logger
}

func newRootCommand(d deps) *cobra.Command {
	c := &cli{deps: d}
	root := &cobra.Command{
		Use:           "deckgest",
		Short:         "Build budget-fitted slide decks",
		Long:          `deckgest turns generated text, encyclopedia articles and documents into slide decks whose text fits a character budget.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			switch {
			case c.verbose:
				level = slog.LevelDebug
			case c.quiet:
				level = slog.LevelError
			}
			// Progress goes to stderr so stdout stays clean for output.
			c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output (debug level)")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "quiet output (errors only)")

	root.AddCommand(
		c.newGenerateCommand(),
		c.newDocCommand(),
		c.newFitCommand(),
		c.newProfilesCommand(),
	)
	return root
}

func (c *cli) config() (config.Config, error) {
	cfg, err := c.deps.loadConfig()
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// readInput reads the named file, or stdin when name is empty or "-".
func (c *cli) readInput(name string) ([]byte, error) {
	if name != "" && name != "-" {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	if c.deps.stdinIsTTY != nil && c.deps.stdinIsTTY() {
		return nil, fmt.Errorf("no input: pass a file or pipe text on stdin")
	}
	data, err := io.ReadAll(c.deps.stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
