// Package draftdata runs the fetch pipeline that turns 17Lands statistics and
// card metadata into the per-set artifact consumed by the overlay.
package draftdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/cfb"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/metadata"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/seventeenlands"
	"github.com/ramonehamilton/arena-overlay/internal/storage"
)

// ErrEmptyCanary is returned when the whole-format dataset has no cards.
// No artifact is written so the previous one stays in place.
var ErrEmptyCanary = errors.New("whole-format dataset is empty")

// MetadataResolver resolves card metadata for a set. *metadata.Chain satisfies it.
type MetadataResolver interface {
	Resolve(ctx context.Context, set string) (*metadata.ChainResult, error)
}

// SnapshotRecorder stores a completed run. *storage.SnapshotRepository satisfies it.
type SnapshotRecorder interface {
	Record(ctx context.Context, snap storage.Snapshot, cards []storage.SnapshotCard) (*storage.Snapshot, error)
}

// UpdaterConfig configures the draft data updater.
type UpdaterConfig struct {
	// Fetcher for 17Lands datasets (required)
	Fetcher *seventeenlands.Fetcher

	// Metadata resolves card metadata; nil leaves payload defaults in place
	Metadata MetadataResolver

	// Snapshots records each run; nil disables history
	Snapshots SnapshotRecorder

	// Format is the 17Lands draft format (default: PremierDraft)
	Format string

	// ColorPairs fetched after the canary (default: artifact.ColorPairs)
	ColorPairs []string

	// ArtifactsDir receives cards_{SET}.json (required)
	ArtifactsDir string

	// GradesPath is the pro grades file; empty skips grades
	GradesPath string
}

// Updater runs the fetch pipeline for one set at a time.
type Updater struct {
	fetcher      *seventeenlands.Fetcher
	metadata     MetadataResolver
	snapshots    SnapshotRecorder
	format       string
	colorPairs   []string
	artifactsDir string
	gradesPath   string
}

// NewUpdater creates a new draft data updater.
func NewUpdater(config UpdaterConfig) (*Updater, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("Fetcher is required")
	}
	if config.ArtifactsDir == "" {
		return nil, fmt.Errorf("ArtifactsDir is required")
	}

	if config.Format == "" {
		config.Format = "PremierDraft"
	}
	if len(config.ColorPairs) == 0 {
		config.ColorPairs = artifact.ColorPairs
	}

	return &Updater{
		fetcher:      config.Fetcher,
		metadata:     config.Metadata,
		snapshots:    config.Snapshots,
		format:       config.Format,
		colorPairs:   config.ColorPairs,
		artifactsDir: config.ArtifactsDir,
		gradesPath:   config.GradesPath,
	}, nil
}

// PairResult is the outcome of one color-pair fetch.
type PairResult struct {
	Pair   string
	Mode   seventeenlands.FetchMode
	Source seventeenlands.Source
	Merged int
	Error  error
}

// RunReport contains the results of an update run.
type RunReport struct {
	SetCode string
	Format  string

	MetadataSource string
	MetadataCards  int

	HadPrevious         bool
	PreviousFingerprint int64
	Fingerprint         int64
	PairsRefreshed      bool

	Pairs          []PairResult
	CardCount      int
	GradesAttached int
	ArtifactPath   string
	SnapshotID     string

	// Failures lists stages that failed without aborting the run.
	Failures []string
	Duration time.Duration
}

func (r *RunReport) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[Updater] %s", msg)
	r.Failures = append(r.Failures, msg)
}

// Update runs the pipeline for a set: resolve metadata, refresh the
// whole-format canary, decide whether the color pairs need refetching, build
// and save the artifact, then record a snapshot.
//
// Only an empty canary or a failed artifact write return an error. Every other
// failure is logged and listed in the report.
func (u *Updater) Update(ctx context.Context, setCode string) (*RunReport, error) {
	start := time.Now()
	set := strings.ToUpper(setCode)
	report := &RunReport{SetCode: set, Format: u.format}
	defer func() {
		report.Duration = time.Since(start)
	}()

	meta := u.resolveMetadata(ctx, set, report)

	canaryKey := seventeenlands.CacheKey{Set: set, Format: u.format}
	previous, hadPrevious := u.fetcher.Previous(canaryKey)
	report.HadPrevious = hadPrevious
	if hadPrevious {
		report.PreviousFingerprint = seventeenlands.Fingerprint(previous)
	}

	canary, err := u.fetcher.Fetch(ctx, canaryKey, seventeenlands.FetchForce)
	if err != nil {
		return report, fmt.Errorf("fetch %s: %w", canaryKey, err)
	}
	if canary.Empty() {
		return report, fmt.Errorf("%s: %w", canaryKey, ErrEmptyCanary)
	}

	report.Fingerprint = seventeenlands.Fingerprint(canary.Ratings)
	report.PairsRefreshed = seventeenlands.PairsNeedRefresh(report.PreviousFingerprint, report.Fingerprint, hadPrevious)
	if report.PairsRefreshed {
		log.Printf("[Updater] %s fingerprint %d (previous %d, known %v): refreshing color pairs",
			set, report.Fingerprint, report.PreviousFingerprint, hadPrevious)
	} else {
		log.Printf("[Updater] %s fingerprint unchanged (%d): using cached color pairs", set, report.Fingerprint)
	}

	art := artifact.Build(canary.Ratings, meta)
	report.CardCount = len(art)

	u.mergeColorPairs(ctx, set, art, report)
	u.attachGrades(art, report)

	path, err := artifact.Save(u.artifactsDir, set, art)
	if err != nil {
		return report, err
	}
	report.ArtifactPath = path

	u.recordSnapshot(ctx, art, report)

	return report, nil
}

func (u *Updater) resolveMetadata(ctx context.Context, set string, report *RunReport) map[string]*metadata.Record {
	if u.metadata == nil {
		return nil
	}

	result, err := u.metadata.Resolve(ctx, set)
	if err != nil {
		report.fail("metadata for %s unavailable, using payload defaults: %v", set, err)
	}
	if result == nil {
		return nil
	}

	report.MetadataSource = result.Source
	report.MetadataCards = len(result.Records)
	return result.Records
}

func (u *Updater) mergeColorPairs(ctx context.Context, set string, art artifact.Artifact, report *RunReport) {
	mode := seventeenlands.FetchCacheOnly
	if report.PairsRefreshed {
		mode = seventeenlands.FetchForce
	}

	for _, pair := range u.colorPairs {
		if ctx.Err() != nil {
			report.fail("color pairs interrupted: %v", ctx.Err())
			return
		}

		key := seventeenlands.CacheKey{Set: set, Format: u.format, Colors: pair}
		pr := PairResult{Pair: pair, Mode: mode}

		result, err := u.fetcher.Fetch(ctx, key, mode)
		if err != nil {
			pr.Error = err
			report.fail("color pair %s skipped: %v", pair, err)
		}
		if result != nil {
			pr.Source = result.Source
			if !result.Empty() {
				pr.Merged = art.MergeColorPair(pair, result.Ratings)
			}
		}

		report.Pairs = append(report.Pairs, pr)
	}
}

func (u *Updater) attachGrades(art artifact.Artifact, report *RunReport) {
	if u.gradesPath == "" {
		return
	}

	grades, err := cfb.LoadGrades(u.gradesPath)
	if err != nil {
		report.fail("pro grades unreadable: %v", err)
		return
	}
	report.GradesAttached = art.AttachGrades(grades)
}

func (u *Updater) recordSnapshot(ctx context.Context, art artifact.Artifact, report *RunReport) {
	if u.snapshots == nil {
		return
	}

	snap := storage.Snapshot{
		SetCode:        report.SetCode,
		Format:         report.Format,
		Fingerprint:    report.Fingerprint,
		PairsRefreshed: report.PairsRefreshed,
		MetadataSource: report.MetadataSource,
		Weights:        artifact.ScoreFormula,
	}
	if report.HadPrevious {
		prev := report.PreviousFingerprint
		snap.PreviousFingerprint = &prev
	}

	ranked := art.Ranked(0)
	cards := make([]storage.SnapshotCard, 0, len(ranked))
	for _, e := range ranked {
		cards = append(cards, storage.SnapshotCard{
			ArenaID:    e.ArenaID,
			Name:       e.Stat.Name,
			Score:      e.Score,
			Confidence: e.Stat.Confidence,
		})
	}

	stored, err := u.snapshots.Record(ctx, snap, cards)
	if err != nil {
		report.fail("snapshot not recorded: %v", err)
		return
	}
	report.SnapshotID = stored.ID
}
