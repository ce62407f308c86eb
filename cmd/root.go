package cmd

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/simonvc/bookkeeper/internal/client"
	"github.com/simonvc/bookkeeper/internal/config"
	"github.com/simonvc/bookkeeper/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer   string
	flagDB       string
	flagOwner    string
	flagConfig   string
	flagLogLevel string

	cfg *config.Config

	errOwnerRequired = errors.New("an owner is required: pass --owner or set BOOKKEEPER_CLIENT_OWNER_ID")
)

var rootCmd = &cobra.Command{
	Use:           "bookkeeper",
	Short:         "Double-entry bookkeeping ledger with period closing",
	Long:          "A double-entry bookkeeping ledger backed by SQLite: hierarchical chart of accounts, transaction status workflow, financial statements and accounting period closing.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("server") {
			loaded.Client.Server = flagServer
		}
		if flags.Changed("owner") {
			loaded.Client.OwnerID = flagOwner
		}
		if flags.Changed("db") {
			loaded.Database.Path = flagDB
		}
		if flags.Changed("log-level") {
			loaded.Log.Level = flagLogLevel
		}
		cfg = loaded
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagServer, "server", "http://localhost:8888", "Server address")
	pf.StringVar(&flagDB, "db", "bookkeeper.db", "SQLite database path")
	pf.StringVar(&flagOwner, "owner", "", "Owner ID the ledger belongs to")
	pf.StringVar(&flagConfig, "config", "bookkeeper.toml", "Config file")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func Execute() error {
	return rootCmd.Execute()
}

func newLogger() zerolog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// newClient talks to the configured server as the configured owner.
func newClient() (*client.Client, error) {
	if cfg.Client.OwnerID == "" {
		return nil, errOwnerRequired
	}
	return client.New(cfg.Client.Server, cfg.Client.OwnerID), nil
}
