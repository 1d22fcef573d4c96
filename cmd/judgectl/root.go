package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/db"
)

var (
	driver string
	dsn    string
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:           "judgectl",
	Short:         "Operator tool for the judging database: report export, member migration, password hashes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("driver") {
			driver = cfg.DBDriver
		}
		if !cmd.Flags().Changed("dsn") {
			dsn = cfg.DBDSN
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "judgectl:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database driver: sqlite or postgres (default from DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database DSN (default from DB_DSN)")
}

// openDB opens the configured database, creating the schema if needed.
func openDB(ctx context.Context) (*sql.DB, error) {
	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Open(octx, db.Driver(driver), dsn)
}
