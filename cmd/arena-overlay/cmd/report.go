package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/charts"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
)

var (
	reportTop    int
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report [SET]",
	Short: "Render an HTML chart of the best cards by composite score",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := cfg.SetCode(firstArg(args))
		if err != nil {
			return err
		}

		art, err := artifact.Load(artifact.Path(cfg.Output.ArtifactsDir, set))
		if err != nil {
			return err
		}

		top := cfg.Output.ReportTop
		if cmd.Flags().Changed("top") {
			top = reportTop
		}
		output := reportOutput
		if output == "" {
			output = cfg.Output.ReportPath
		}

		ranked := art.Ranked(top)
		if len(ranked) == 0 {
			return fmt.Errorf("artifact for %s has no cards", set)
		}

		data := make([]charts.DataPoint, len(ranked))
		for i, e := range ranked {
			data[i] = charts.DataPoint{Label: e.Stat.Name, Value: e.Score}
		}

		config := charts.DefaultChartConfig()
		config.Title = fmt.Sprintf("%s: top %d cards", set, len(ranked))
		config.Subtitle = artifact.ScoreFormula
		config.SeriesName = "Composite score"
		if err := charts.RenderBarChart(data, config, output); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVarP(&reportTop, "top", "n", 40, "number of cards to chart (0 charts all)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "HTML output path (overrides output.report_path)")
	rootCmd.AddCommand(reportCmd)
}
