package cli

import (
	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		Long: `Show recorded sync runs, most recent first.

Each run lists how many channels were inserted, refreshed, closed for the
first time and swept because they were missing from the snapshot.

Examples:
  chansync history --db ./chansync.db
  chansync history --db ./chansync.db --limit 0   # all runs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to show (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	runs, err := st.ListSyncRuns(cmd.Context(), opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to list sync runs", err.Error())
		return WrapExitError(ExitFailure, "failed to list sync runs", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(runs)
	}
	writeRunsText(formatter.Writer, runs)
	return nil
}
