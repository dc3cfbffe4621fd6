package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/charts"
	"github.com/ramonehamilton/arena-overlay/internal/storage"
)

var (
	historyLimit int
	historyCards int
	historyChart string
)

var historyCmd = &cobra.Command{
	Use:   "history [SET]",
	Short: "List recorded fetch runs",
	Long: `List the snapshots recorded by fetch, newest first. Without a set code
every set is listed.

Examples:
  arena-overlay history
  arena-overlay history BLB --cards 10
  arena-overlay history BLB --chart fingerprints.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set := firstArg(args)

		db, err := storage.Open(storage.DefaultConfig(cfg.Storage.DBPath))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		repo := storage.NewSnapshotRepository(db)

		ctx := cmd.Context()
		snapshots, err := repo.List(ctx, set, historyLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(snapshots) == 0 {
			fmt.Fprintln(out, "No fetch history recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-4s  %-12s  %12s  %6s  %-9s  %s\n", "WHEN", "SET", "FORMAT", "FINGERPRINT", "CARDS", "PAIRS", "METADATA")
		for _, s := range snapshots {
			pairs := "cached"
			if s.PairsRefreshed {
				pairs = "refreshed"
			}
			meta := s.MetadataSource
			if meta == "" {
				meta = "-"
			}
			fmt.Fprintf(out, "%-19s  %-4s  %-12s  %12d  %6d  %-9s  %s\n",
				s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.SetCode, s.Format, s.Fingerprint, s.CardCount, pairs, meta)
		}

		if historyCards > 0 {
			if err := printSnapshotCards(cmd, repo, snapshots[0], historyCards); err != nil {
				return err
			}
		}

		if historyChart != "" {
			if set == "" {
				return errors.New("--chart needs a set code")
			}
			if err := renderFingerprintChart(snapshots, set, historyChart); err != nil {
				return err
			}
			fmt.Fprintf(out, "Chart written to %s\n", historyChart)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "snapshots to list (0 lists all)")
	historyCmd.Flags().IntVar(&historyCards, "cards", 0, "also show the top cards of the newest snapshot")
	historyCmd.Flags().StringVar(&historyChart, "chart", "", "render the fingerprint trend to this HTML file")
	rootCmd.AddCommand(historyCmd)
}

func printSnapshotCards(cmd *cobra.Command, repo *storage.SnapshotRepository, snap *storage.Snapshot, limit int) error {
	cards, err := repo.Cards(cmd.Context(), snap.ID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nTop cards in %s %s snapshot %s\n", snap.SetCode, snap.Format, snap.ID)
	for i, c := range cards {
		fmt.Fprintf(out, "  %2d. %-32s %6.3f  (confidence %.2f)\n", i+1, c.Name, c.Score, c.Confidence)
	}
	return nil
}

// renderFingerprintChart plots fingerprints oldest to newest.
func renderFingerprintChart(snapshots []*storage.Snapshot, set, path string) error {
	data := make([]charts.DataPoint, 0, len(snapshots))
	for i := len(snapshots) - 1; i >= 0; i-- {
		s := snapshots[i]
		data = append(data, charts.DataPoint{
			Label: s.CreatedAt.Local().Format("01-02 15:04"),
			Value: float64(s.Fingerprint),
		})
	}

	config := charts.DefaultChartConfig()
	config.Title = fmt.Sprintf("%s dataset fingerprint", set)
	config.Subtitle = "sum of seen counts per fetch"
	config.SeriesName = "Fingerprint"
	return charts.RenderLineChart(data, config, path)
}
