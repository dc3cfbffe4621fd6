package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|status>",
	Short: "Manage the history database schema",
	Long: `Apply, roll back, or inspect the history database migrations. fetch and
history apply pending migrations on their own; this command is for manual
maintenance.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
			return fmt.Errorf("error creating database directory: %w", err)
		}

		mgr, err := storage.NewMigrationManager(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("error creating migration manager: %w", err)
		}
		defer func() {
			if err := mgr.Close(); err != nil {
				log.Printf("Error closing migration manager: %v", err)
			}
		}()

		out := cmd.OutOrStdout()
		switch args[0] {
		case "up":
			fmt.Fprintln(out, "Applying all pending migrations...")
			if err := mgr.Up(); err != nil {
				return fmt.Errorf("error applying migrations: %w", err)
			}
		case "down":
			fmt.Fprintln(out, "Rolling back last migration...")
			if err := mgr.Down(); err != nil {
				return fmt.Errorf("error rolling back migration: %w", err)
			}
		case "status":
		default:
			return fmt.Errorf("unknown migrate command %q (want up, down or status)", args[0])
		}

		version, dirty, err := mgr.Version()
		if err != nil {
			return fmt.Errorf("error getting version: %w", err)
		}
		if dirty {
			fmt.Fprintf(out, "Current version: %d (dirty - migration failed or interrupted)\n", version)
		} else {
			fmt.Fprintf(out, "Current version: %d\n", version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
