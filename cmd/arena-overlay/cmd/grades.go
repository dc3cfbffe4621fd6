package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/cfb"
)

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Import pro card grades into the grades file",
	Long: `Extract pro card grades from a saved ratings page or a JSON export and
merge them into the grades file. Grades are matched to cards by name on the
next fetch.

Examples:
  arena-overlay grades html ~/Downloads/ratings.html
  arena-overlay grades json ~/Downloads/lsv.json`,
}

var gradesHTMLCmd = &cobra.Command{
	Use:   "html <path>",
	Short: "Import grades from a saved HTML ratings page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		importer := cfb.NewImporter(cfg.Output.GradesPath)
		result, err := importer.ImportFromHTML(args[0])
		return reportImport(cmd, importer, result, err)
	},
}

var gradesJSONCmd = &cobra.Command{
	Use:   "json <path>",
	Short: `Import grades from a {"cards":[{"name","lsv_rating"}]} export`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		importer := cfb.NewImporter(cfg.Output.GradesPath)
		result, err := importer.ImportFromJSON(args[0])
		return reportImport(cmd, importer, result, err)
	},
}

func init() {
	gradesCmd.AddCommand(gradesHTMLCmd, gradesJSONCmd)
	rootCmd.AddCommand(gradesCmd)
}

// reportImport prints the outcome. A missing export or one without ratings is
// not a failure: nothing is written and the command exits cleanly.
func reportImport(cmd *cobra.Command, importer *cfb.Importer, result *cfb.ImportResult, err error) error {
	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, cfb.ErrNoRatings):
		fmt.Fprintf(out, "No ratings found in %s\n", result.Source)
		return nil
	case err != nil:
		return err
	case result.Missing:
		fmt.Fprintf(out, "Export not found: %s\n", result.Source)
		return nil
	}

	fmt.Fprintf(out, "Extracted %d ratings from %s\n", result.Extracted, result.Source)
	fmt.Fprintf(out, "%s now holds %d ratings\n", importer.GradesPath(), result.Total)
	return nil
}
