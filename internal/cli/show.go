package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/chansync/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <funding-txid>",
		Short: "Show one stored channel",
		Long: `Show a single stored channel by funding txid.

Exits with code 2 if the channel is unknown.

Example:
  chansync show --db ./chansync.db 4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, fundingTxID string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	c, err := st.GetChannel(cmd.Context(), fundingTxID)
	if errors.Is(err, store.ErrChannelNotFound) {
		_ = formatter.Error(ErrCodeNotFound, "channel not found", map[string]string{"funding_txid": fundingTxID})
		return WrapExitError(ExitCommandError, "channel not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to read channel", err.Error())
		return WrapExitError(ExitFailure, "failed to read channel", err)
	}

	if formatter.IsJSON() {
		return formatter.Success(c)
	}
	writeChannelText(formatter.Writer, c)
	return nil
}
