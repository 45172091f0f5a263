package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/nwocg/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the nwocg CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nwocg",
		Short: "nwocg - block diagram to C code generator",
		Long: `Generate C code from block-diagram models.

A model of input/output ports, sums, gains and unit delays connected by
signal lines becomes a static state struct, an init function and a
step function that computes one discrete time-step.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = cfg

			if !cmd.Flags().Changed("format") && cfg.Format != "" {
				opts.Format = cfg.Format
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			if cfg.Path != "" {
				slog.Debug("config loaded", "path", cfg.Path)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultFileName+" when present)")

	// Add subcommands
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewScheduleCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupLogging installs the process-wide slog handler. Logs go to w so they
// never mix with command output.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// settings returns the loaded config, or defaults when a command runs
// without the root's pre-run hook (as in unit tests).
func (o *RootOptions) settings() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}
