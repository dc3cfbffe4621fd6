package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/arena-overlay/internal/config"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/draftdata"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/metadata"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/scryfall"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/seventeenlands"
	"github.com/ramonehamilton/arena-overlay/internal/storage"
)

var fetchFormat string

var fetchCmd = &cobra.Command{
	Use:   "fetch [SET]",
	Short: "Fetch 17Lands ratings and write the card artifact",
	Long: `Fetch the whole-format 17Lands ratings for a set, compare them with the
cached copy, refresh the ten color-pair datasets when the data moved, and write
cards_{SET}.json to the artifacts directory.

Examples:
  arena-overlay fetch            # configured default set
  arena-overlay fetch BLB
  arena-overlay fetch DSK --format QuickDraft`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := cfg.SetCode(firstArg(args))
		if err != nil {
			return err
		}
		if fetchFormat != "" {
			cfg.Fetch.Format = fetchFormat
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		pipeline, err := newFetchPipeline(cfg)
		if err != nil {
			return err
		}
		defer pipeline.close()

		report, err := pipeline.updater.Update(ctx, set)
		printRunReport(cmd.OutOrStdout(), report)
		printClientStats(cmd.OutOrStdout(), pipeline.client.GetStats())
		return err
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "", "draft format (overrides fetch.format)")
	rootCmd.AddCommand(fetchCmd)
}

// fetchPipeline is the updater wired from configuration, plus the 17Lands
// client whose request counts are reported after a run.
type fetchPipeline struct {
	updater *draftdata.Updater
	client  *seventeenlands.Client
	close   func()
}

// newFetchPipeline wires the fetch pipeline from configuration. close releases
// the history database when one was opened.
func newFetchPipeline(cfg *config.Config) (*fetchPipeline, error) {
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}
	delay, err := cfg.GetRequestDelay()
	if err != nil {
		return nil, err
	}
	pageDelay, err := cfg.GetPageDelay()
	if err != nil {
		return nil, err
	}

	opts := seventeenlands.DefaultClientOptions()
	opts.BaseURL = cfg.Fetch.BaseURL
	opts.UserAgent = cfg.Fetch.UserAgent
	if delay > 0 {
		opts.RateLimit = rate.Every(delay)
	}
	client := seventeenlands.NewClient(opts)
	fetcher := seventeenlands.NewFetcher(client, seventeenlands.NewCache(cfg.Fetch.CacheDir), ttl)

	chain := metadata.NewChain(
		metadata.NewMTGJSONResolver(metadata.MTGJSONOptions{
			URLTemplate: cfg.Metadata.MTGJSONURL,
			UserAgent:   cfg.Fetch.UserAgent,
		}),
		metadata.NewScryfallResolver(scryfall.NewClientWithOptions(scryfall.ClientOptions{
			BaseURL:   cfg.Metadata.ScryfallURL,
			Delay:     pageDelay,
			UserAgent: cfg.Fetch.UserAgent,
		})),
	)

	updaterConfig := draftdata.UpdaterConfig{
		Fetcher:      fetcher,
		Metadata:     chain,
		Format:       cfg.Fetch.Format,
		ColorPairs:   cfg.Fetch.ColorPairs,
		ArtifactsDir: cfg.Output.ArtifactsDir,
		GradesPath:   cfg.Output.GradesPath,
	}

	closeStore := func() {}
	if cfg.Storage.Enabled {
		db, err := storage.Open(storage.DefaultConfig(cfg.Storage.DBPath))
		if err != nil {
			log.Printf("[CLI] History disabled, could not open %s: %v", cfg.Storage.DBPath, err)
		} else {
			updaterConfig.Snapshots = storage.NewSnapshotRepository(db)
			closeStore = func() {
				if err := db.Close(); err != nil {
					log.Printf("[CLI] Error closing database: %v", err)
				}
			}
		}
	}

	updater, err := draftdata.NewUpdater(updaterConfig)
	if err != nil {
		closeStore()
		return nil, err
	}
	return &fetchPipeline{updater: updater, client: client, close: closeStore}, nil
}

func printClientStats(w io.Writer, stats seventeenlands.ClientStats) {
	fmt.Fprintf(w, "  17Lands:      %d requests, %d failed\n", stats.TotalRequests, stats.FailedRequests)
}

func printRunReport(w io.Writer, report *draftdata.RunReport) {
	if report == nil {
		return
	}

	fmt.Fprintf(w, "%s %s\n", report.SetCode, report.Format)
	if report.MetadataSource != "" {
		fmt.Fprintf(w, "  Metadata:     %d cards from %s\n", report.MetadataCards, report.MetadataSource)
	} else {
		fmt.Fprintln(w, "  Metadata:     none (payload defaults)")
	}
	if report.HadPrevious {
		fmt.Fprintf(w, "  Fingerprint:  %d (was %d)\n", report.Fingerprint, report.PreviousFingerprint)
	} else {
		fmt.Fprintf(w, "  Fingerprint:  %d (first fetch)\n", report.Fingerprint)
	}

	merged := 0
	for _, pr := range report.Pairs {
		if pr.Merged > 0 {
			merged++
		}
	}
	action := "cached"
	if report.PairsRefreshed {
		action = "refreshed"
	}
	fmt.Fprintf(w, "  Color pairs:  %d/%d merged (%s)\n", merged, len(report.Pairs), action)

	if report.ArtifactPath != "" {
		fmt.Fprintf(w, "  Artifact:     %d cards -> %s\n", report.CardCount, report.ArtifactPath)
	}
	if report.GradesAttached > 0 {
		fmt.Fprintf(w, "  Pro grades:   %d cards\n", report.GradesAttached)
	}
	if report.SnapshotID != "" {
		fmt.Fprintf(w, "  Snapshot:     %s\n", report.SnapshotID)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(w, "  Warning:      %s\n", failure)
	}
	fmt.Fprintf(w, "  Took %s\n", report.Duration.Round(time.Millisecond))
}
