package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/chansync/internal/config"
	"github.com/roach88/chansync/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	// Clock and RunIDs override the store defaults (for testing).
	Clock  store.Clock
	RunIDs store.RunIDGenerator

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the chansync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chansync",
		Short: "chansync - payment channel state store",
		Long:  "Persist observed payment channel snapshots in SQLite and reconcile them on every sync.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file (default ./"+config.DefaultFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return lo.Contains(ValidFormats, format)
}

// setup resolves configuration and installs the logger. Flags set on the
// command line win over config file and environment values.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		_ = o.formatter(cmd).Error(ErrCodeConfig, "failed to load config", err.Error())
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.DBPath = o.Database
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	o.cfg = &cfg
	o.logger = newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(o.logger)
	return nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openStore opens the configured database. setup must have run.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	storeOpts := []store.Option{store.WithLogger(o.logger)}
	if o.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(o.Clock))
	}
	if o.RunIDs != nil {
		storeOpts = append(storeOpts, store.WithRunIDGenerator(o.RunIDs))
	}

	o.logger.Debug("opening database", "path", o.cfg.DBPath)
	st, err := store.Open(o.cfg.DBPath, storeOpts...)
	if err != nil {
		_ = o.formatter(cmd).Error(ErrCodeDatabase, "failed to open database", err.Error())
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging any error.
func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.logger.Error("error closing database", "error", err)
	}
}

// formatter returns an OutputFormatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
