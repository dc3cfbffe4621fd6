// Package artifact builds and persists the per-card stats file the overlay reads.
package artifact

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/cfb"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/metadata"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/seventeenlands"
	"github.com/ramonehamilton/arena-overlay/internal/stats"
)

// ColorPairs are the ten two-color archetypes fetched after the whole-format pass.
var ColorPairs = []string{"WU", "UB", "BR", "RG", "GW", "WB", "UR", "BG", "RW", "GU"}

// Defaults used when the statistics payload omits a field.
const (
	DefaultWinRate = 0.5
	DefaultATA     = 8.0
)

// CardStat is one artifact entry.
type CardStat struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
	URL    string `json:"url"`

	ZGih  float64 `json:"zGih"`
	ZIwd  float64 `json:"zIwd"`
	ZAlsa float64 `json:"zAlsa"`

	Confidence  float64 `json:"confidence"`
	GamesPlayed int     `json:"gamesPlayed"`

	Colors    []string `json:"colors"`
	CMC       float64  `json:"cmc"`
	ManaCost  string   `json:"manaCost,omitempty"`
	Types     []string `json:"types"`
	Mechanics []string `json:"mechanics"`

	OHWR float64 `json:"ohwr"` // opening hand win rate, rescaled to about [-5, 5]
	GPWR float64 `json:"gpwr"` // game present win rate, rescaled to about [-5, 5]
	ATA  float64 `json:"ata"`

	ColorPairScores map[string]float64 `json:"colorPairScores"`
	ProScore        *float64           `json:"proScore,omitempty"`
}

// Artifact maps Arena ID to its stats.
type Artifact map[string]*CardStat

// RescaleWinRate maps a win-rate fraction to roughly [-5, 5].
//
// The default only applies when the field is absent or null. A rate that is
// present but zero rescales to -5 rather than 0.
func RescaleWinRate(rate *float64) float64 {
	v := DefaultWinRate
	if rate != nil {
		v = *rate
	}
	return (v - DefaultWinRate) * 10
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Build creates one CardStat per rated card. Z-scores are computed across the
// whole pool; cards without an Arena ID are dropped first. Metadata, when
// present for a card, overrides the defaults carried in the payload.
func Build(ratings []seventeenlands.CardRating, meta map[string]*metadata.Record) Artifact {
	pool := make([]seventeenlands.CardRating, 0, len(ratings))
	for _, r := range ratings {
		if r.ArenaID() == "" {
			continue
		}
		pool = append(pool, r)
	}

	gih := make([]float64, len(pool))
	iwd := make([]float64, len(pool))
	alsa := make([]float64, len(pool))
	for i, r := range pool {
		gih[i] = valueOr(r.GIHWR, 0)
		iwd[i] = valueOr(r.IWD, 0)
		alsa[i] = valueOr(r.ALSA, 0)
	}
	zGih := stats.ZScores(gih)
	zIwd := stats.ZScores(iwd)
	zAlsa := stats.ZScores(alsa)

	art := make(Artifact, len(pool))
	zeroRates := 0
	for i, r := range pool {
		if (r.OHWR != nil && *r.OHWR == 0) || (r.GPWR != nil && *r.GPWR == 0) {
			zeroRates++
		}

		stat := &CardStat{
			Name:            r.Name,
			Rarity:          r.Rarity,
			URL:             r.URL,
			ZGih:            zGih[i],
			ZIwd:            zIwd[i],
			ZAlsa:           zAlsa[i],
			Confidence:      stats.Confidence(r.GameCount),
			GamesPlayed:     r.GameCount,
			Colors:          splitColors(r.Color),
			Types:           nonNil(r.Types),
			Mechanics:       []string{},
			OHWR:            RescaleWinRate(r.OHWR),
			GPWR:            RescaleWinRate(r.GPWR),
			ATA:             valueOr(r.ATA, DefaultATA),
			ColorPairScores: map[string]float64{},
		}

		if rec, ok := meta[r.ArenaID()]; ok && rec != nil {
			applyMetadata(stat, rec)
		}

		art[r.ArenaID()] = stat
	}

	if zeroRates > 0 {
		log.Printf("[Normalizer] %d cards report a win rate of exactly 0; rescaled to -5 instead of the 0.5 default", zeroRates)
	}

	return art
}

func applyMetadata(stat *CardStat, rec *metadata.Record) {
	stat.CMC = rec.CMC
	if rec.ManaCost != "" {
		stat.ManaCost = rec.ManaCost
	}
	if len(rec.Types) > 0 {
		stat.Types = rec.Types
	}
	if rec.Colors != nil {
		stat.Colors = rec.Colors
	}
	if len(rec.Keywords) > 0 {
		stat.Mechanics = rec.Keywords
	}
	if rec.Rarity != "" {
		stat.Rarity = rec.Rarity
	}
}

// splitColors turns the payload's color string ("WU") into ["W", "U"].
func splitColors(color string) []string {
	colors := []string{}
	for _, c := range strings.ToUpper(color) {
		if strings.ContainsRune("WUBRG", c) {
			colors = append(colors, string(c))
		}
	}
	return colors
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MergeColorPair records a pair's ever-drawn win rate, as a percentage, on the
// cards already in the artifact. Unknown IDs and cards without a rate are
// skipped. It returns the number of cards updated.
func (a Artifact) MergeColorPair(pair string, ratings []seventeenlands.CardRating) int {
	merged := 0
	for _, r := range ratings {
		stat, ok := a[r.ArenaID()]
		if !ok || r.GIHWR == nil {
			continue
		}
		stat.ColorPairScores[pair] = *r.GIHWR * 100
		merged++
	}
	return merged
}

// AttachGrades sets ProScore from pro grades matched by cleaned card name.
func (a Artifact) AttachGrades(grades cfb.Grades) int {
	attached := 0
	for _, stat := range a {
		if rating, ok := grades.Lookup(stat.Name); ok {
			stat.ProScore = &rating
			attached++
		}
	}
	return attached
}

// ScoreFormula describes the weights used by Score. It is stored with history snapshots.
const ScoreFormula = "(0.55*zGih + 0.25*zIwd - 0.20*zAlsa) * confidence"

// Score is the composite pick score: weighted z-scores scaled by confidence.
// A lower ALSA means the card is taken earlier, so it counts against.
func Score(stat *CardStat) float64 {
	raw := 0.55*stat.ZGih + 0.25*stat.ZIwd - 0.20*stat.ZAlsa
	return raw * stat.Confidence
}

// Entry is a card with its ID and composite score.
type Entry struct {
	ArenaID string
	Stat    *CardStat
	Score   float64
}

// Ranked returns the cards ordered by descending score, ties by name.
// A limit of zero or less returns every card.
func (a Artifact) Ranked(limit int) []Entry {
	entries := make([]Entry, 0, len(a))
	for id, stat := range a {
		entries = append(entries, Entry{ArenaID: id, Stat: stat, Score: Score(stat)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Stat.Name != entries[j].Stat.Name {
			return entries[i].Stat.Name < entries[j].Stat.Name
		}
		return entries[i].ArenaID < entries[j].ArenaID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Subset returns the cards with the given IDs. Unknown IDs are skipped.
func (a Artifact) Subset(ids []string) Artifact {
	sub := make(Artifact, len(ids))
	for _, id := range ids {
		if stat, ok := a[id]; ok {
			sub[id] = stat
		}
	}
	return sub
}

// Path returns the artifact location for a set.
func Path(dir, set string) string {
	return filepath.Join(dir, fmt.Sprintf("cards_%s.json", strings.ToUpper(set)))
}

// Save writes the artifact as indented JSON, creating dir if needed.
// The file is overwritten in place.
func Save(dir, set string, a Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}

	path := Path(dir, set)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	log.Printf("[Artifact] Wrote %d cards to %s", len(a), path)
	return path, nil
}

// Load reads an artifact written by Save.
func Load(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	for id, stat := range a {
		if stat == nil {
			delete(a, id)
			continue
		}
		if stat.ColorPairScores == nil {
			stat.ColorPairScores = map[string]float64{}
		}
	}
	return a, nil
}
