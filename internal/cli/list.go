package cli

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored channels",
		Long: `List every stored channel ordered by funding txid.

Rows whose stored state is not recognised are shown as Closed.

Examples:
  chansync list --db ./chansync.db
  chansync list --db ./chansync.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	channels, err := st.ListChannels(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to list channels", err.Error())
		return WrapExitError(ExitFailure, "failed to list channels", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(channels)
	}
	writeChannelsText(formatter.Writer, channels)
	return nil
}
