// Package bench implements the cannonbench CLI, which measures how precisely waits and rate controllers perform on the
// current machine.
package bench

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eventcannon/eventcannon/ratecontroller"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	TimerSlack time.Duration
	CPU        int
	Verbose    bool

	// Loaded in PersistentPreRunE
	Config ratecontroller.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the cannonbench CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cannonbench",
		Short: "Measure event pacing precision",
		Long:  "Measures calibration, hybrid wait precision, and rate controller accuracy on the current machine.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath != "" {
				config, err := LoadConfig(opts.ConfigPath)
				if err != nil {
					return err
				}
				opts.Config = config
			}
			if opts.TimerSlack < 0 {
				return fmt.Errorf("invalid timer slack %v: must not be negative", opts.TimerSlack)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML file of rate controller tunables")
	cmd.PersistentFlags().DurationVar(&opts.TimerSlack, "timer-slack", 0, "timer slack for waiting threads, linux only (0 leaves it unchanged)")
	cmd.PersistentFlags().IntVar(&opts.CPU, "cpu", -1, "cpu to pin controller threads to (-1 for none)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")

	// Add subcommands
	cmd.AddCommand(NewCalibrateCommand(opts))
	cmd.AddCommand(NewSleepCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
