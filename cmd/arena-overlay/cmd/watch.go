package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/logreader"
)

var (
	watchLogPath   string
	watchFromStart bool
	watchTop       int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail the client log and rank each draft pack",
	Long: `Follow Player.log and, for every pack the client offers, print the cards
ranked by composite score from the set's artifact. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath := watchLogPath
		if logPath == "" {
			logPath = cfg.Simulator.LogPath
		}
		if logPath == "" {
			logPath = logreader.DefaultLogPath()
		}

		out := cmd.OutOrStdout()
		exists, err := logreader.LogExists(logPath)
		if err != nil {
			return fmt.Errorf("log file %s: %w", logPath, err)
		}
		if !exists {
			fmt.Fprintf(out, "Log file not found: %s (waiting for it to appear)\n", logPath)
		}

		pollerConfig := logreader.DefaultPollerConfig(logPath)
		pollerConfig.FromStart = watchFromStart
		poller, err := logreader.NewPoller(pollerConfig)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", logPath)

		events := poller.Start()
		defer poller.Stop()

		scorer := newPackScorer(cfg.Output.ArtifactsDir)
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(out, "Stopped.")
				return nil
			case err := <-poller.Errors():
				log.Printf("[Watch] %v", err)
			case event, ok := <-events:
				if !ok {
					return nil
				}
				scorer.handle(out, event, watchTop)
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchLogPath, "log-path", "", "log file to follow (overrides simulator.log_path)")
	watchCmd.Flags().BoolVar(&watchFromStart, "from-start", false, "replay the existing log before following")
	watchCmd.Flags().IntVarP(&watchTop, "top", "n", 5, "cards shown per pack (0 shows all)")
	rootCmd.AddCommand(watchCmd)
}

// packScorer ranks offered packs against per-set artifacts, loading each set once.
type packScorer struct {
	dir    string
	loaded map[string]artifact.Artifact
}

func newPackScorer(dir string) *packScorer {
	return &packScorer{dir: dir, loaded: make(map[string]artifact.Artifact)}
}

func (s *packScorer) load(set string) (artifact.Artifact, error) {
	if art, ok := s.loaded[set]; ok {
		return art, nil
	}
	art, err := artifact.Load(artifact.Path(s.dir, set))
	if err != nil {
		return nil, err
	}
	s.loaded[set] = art
	return art, nil
}

// rank returns the offered cards known to the set's artifact, best first,
// and how many of them were known.
func (s *packScorer) rank(set string, pack []string, limit int) ([]artifact.Entry, int, error) {
	art, err := s.load(set)
	if err != nil {
		return nil, 0, err
	}
	known := art.Subset(pack)
	return known.Ranked(limit), len(known), nil
}

func (s *packScorer) handle(w io.Writer, event *logreader.DraftEvent, limit int) {
	switch event.Kind {
	case logreader.EventJoin:
		fmt.Fprintf(w, "Joined %s draft\n", event.Expansion)

	case logreader.EventPack:
		if event.Expansion == "" {
			fmt.Fprintf(w, "Pick %d: %d cards, unknown set\n", event.PickNumber, len(event.Pack))
			return
		}
		ranked, rated, err := s.rank(event.Expansion, event.Pack, limit)
		if err != nil {
			log.Printf("[Watch] No artifact for %s: %v", event.Expansion, err)
			return
		}

		fmt.Fprintf(w, "%s pick %d (%d cards, %d rated)\n", event.Expansion, event.PickNumber, len(event.Pack), rated)
		for i, e := range ranked {
			line := fmt.Sprintf("  %2d. %-32s %6.3f  gih %+.2f", i+1, e.Stat.Name, e.Score, e.Stat.ZGih)
			if e.Stat.ProScore != nil {
				line += fmt.Sprintf("  pro %.1f", *e.Stat.ProScore)
			}
			fmt.Fprintln(w, line)
		}
	}
}
