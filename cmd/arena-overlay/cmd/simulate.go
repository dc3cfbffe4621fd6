package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/draft/simulate"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/logreader"
)

var (
	simulateSeed    int64
	simulateLogPath string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [SET]",
	Short: "Append a simulated draft pack to the client log",
	Long: `Build a play booster from the set's artifact and append an event join and a
pack notification to Player.log, so the overlay can be exercised without
starting a real draft.

Examples:
  arena-overlay simulate          # configured default set
  arena-overlay simulate BLB --seed 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := cfg.SetCode(firstArg(args))
		if err != nil {
			return err
		}

		artifactPath := artifact.Path(cfg.Output.ArtifactsDir, set)
		if _, err := os.Stat(artifactPath); os.IsNotExist(err) {
			return fmt.Errorf("no artifact for %s at %s; run fetch first", set, artifactPath)
		}
		art, err := artifact.Load(artifactPath)
		if err != nil {
			return err
		}

		pause, err := cfg.GetSimulatorPause()
		if err != nil {
			return err
		}

		logPath := simulateLogPath
		if logPath == "" {
			logPath = cfg.Simulator.LogPath
		}
		if logPath == "" {
			logPath = logreader.DefaultLogPath()
		}

		seed := simulateSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		pack := simulate.Booster(simulate.BucketByRarity(art), rand.New(rand.NewSource(seed)))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Simulating %s draft in %s...\n", set, logPath)

		eventName := simulate.EventName(cfg.Simulator.Format, set, cfg.EventDate(time.Now()))
		if err := simulate.NewWriter(logPath, pause).WriteDraft(eventName, pack); err != nil {
			return err
		}

		fmt.Fprintf(out, "%d-card %s pack sent to log.\n", len(pack), set)
		return nil
	},
}

func init() {
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "random seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVar(&simulateLogPath, "log-path", "", "log file to append to (overrides simulator.log_path)")
	rootCmd.AddCommand(simulateCmd)
}
