package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/chansync/internal/metrics"
	"github.com/roach88/chansync/internal/snapshot"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	MetricsFile string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <snapshot-file>",
		Short: "Reconcile stored channels against a snapshot",
		Long: `Reconcile stored channels against a snapshot file.

Every channel in the snapshot is inserted or updated. Every stored channel
missing from the snapshot is marked Closed. closed_at is stamped the first
time a channel closes and never changes afterwards.

Snapshots may be YAML (.yaml, .yml), JSON (.json) or CUE (.cue).

Examples:
  chansync sync --db ./chansync.db channels.yaml
  chansync sync --db ./chansync.db --metrics-file /var/lib/node_exporter/chansync.prom channels.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after syncing (overrides config)")

	return cmd
}

func runSync(opts *SyncOptions, snapshotPath string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	channels, err := snapshot.Load(snapshotPath)
	if err != nil {
		_ = formatter.Error(ErrCodeSnapshot, "failed to load snapshot", err.Error())
		return WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}
	if dups := snapshot.Duplicates(channels); len(dups) > 0 {
		opts.logger.Warn("snapshot repeats funding txids, last entry wins", "funding_txids", dups)
	}
	formatter.VerboseLog("Loaded %d channel(s) from %s", len(channels), snapshotPath)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	m := metrics.New()
	start := time.Now()
	report, syncErr := st.SyncChannels(ctx, channels)
	m.ObserveSync(report, time.Since(start), syncErr)

	if syncErr == nil {
		stored, err := st.ListChannels(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, "failed to list channels", err.Error())
			return WrapExitError(ExitFailure, "failed to list channels", err)
		}
		m.SetChannels(stored)
	}

	metricsFile := opts.cfg.MetricsFile
	if opts.MetricsFile != "" {
		metricsFile = opts.MetricsFile
	}
	if metricsFile != "" {
		if err := m.WriteTextfile(metricsFile); err != nil {
			opts.logger.Error("failed to write metrics", "path", metricsFile, "error", err)
		}
	}

	if syncErr != nil {
		_ = formatter.Error(ErrCodeSync, "sync failed", syncErr.Error())
		return WrapExitError(ExitFailure, "sync failed", syncErr)
	}

	if formatter.IsJSON() {
		return formatter.Success(report)
	}
	writeReportText(formatter.Writer, report)
	return nil
}
