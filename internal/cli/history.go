package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/nwocg/internal/ir"
	"github.com/roach88/nwocg/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Model    string // optional - filter to runs of this model's records
}

// HistoryResult lists recorded runs.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `List generation runs recorded with generate --history.

With --model, only runs whose model records hash the same as the given
file are listed, whatever path they were generated from.

Examples:
  nwocg history --db nwocg.db
  nwocg history --db nwocg.db --model model.xml
  nwocg history --db nwocg.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("db") {
				opts.Database = opts.settings().HistoryDB
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database (default history_db from config)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only list runs of this model")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Database == "" {
		return NewExitError(ExitCommandError, "history database required: use --db or history_db in config")
	}
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.Model != "" {
		records, err := loadModel(opts.Model)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read model", err)
		}
		hash, err := ir.ModelHash(records)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to hash model", err)
		}
		runs, err = st.RunsForModel(ctx, hash)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to query runs", err)
		}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}
	if runs == nil {
		runs = []store.Run{}
	}

	if opts.Format == FormatJSON {
		return writeSuccess(&Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}, HistoryResult{Runs: runs})
	}
	outputHistoryText(cmd, runs)
	return nil
}

func outputHistoryText(cmd *cobra.Command, runs []store.Run) {
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	for _, r := range runs {
		fmt.Fprintf(w, "[%d] %s %s\n", r.Seq, truncateID(r.ID), r.ModelPath)
		fmt.Fprintf(w, "     prefix=%s blocks=%d ops=%d delays=%d\n", r.Prefix, r.Blocks, r.Operations, r.Delays)
		fmt.Fprintf(w, "     model=%s source=%s\n", truncateID(r.ModelHash), truncateID(r.SourceHash))
	}
}
