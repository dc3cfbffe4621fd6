// Package cmd implements the arena-overlay command line.
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/config"
)

var (
	configPath string
	debugMode  bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "arena-overlay",
	Short: "Draft statistics tooling for the MTG Arena overlay",
	Long: `arena-overlay fetches 17Lands card statistics, enriches them with card
metadata and pro grades, and writes the per-set artifact the draft overlay reads.

It also simulates draft log lines for testing the overlay, watches the
client log for packs, and keeps a history of fetch runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}
		if debugMode {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.arena-overlay/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "include source locations in log output")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
