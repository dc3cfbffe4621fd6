package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/arena-overlay/internal/config"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/artifact"
	"github.com/ramonehamilton/arena-overlay/internal/mtga/logreader"
)

const ratingsPayload = `[
	{"name": "Mabel, Heir to Cragflame", "mtga_id": 101, "color": "RW", "rarity": "rare", "seen_count": 800,
	 "avg_seen": 2.1, "avg_pick": 1.8, "game_count": 900, "win_rate": 0.6, "opening_hand_win_rate": 0.62,
	 "ever_drawn_win_rate": 0.64, "drawn_improvement_win_rate": 0.07},
	{"name": "Pond Prophet", "mtga_id": 102, "color": "GU", "rarity": "common", "seen_count": 500,
	 "avg_seen": 5.5, "avg_pick": 6.0, "game_count": 4000, "win_rate": 0.55, "opening_hand_win_rate": 0.56,
	 "ever_drawn_win_rate": 0.58, "drawn_improvement_win_rate": 0.03},
	{"name": "Thought Shucker", "mtga_id": 103, "color": "U", "rarity": "common", "seen_count": 300,
	 "avg_seen": 7.0, "avg_pick": 8.2, "game_count": 50, "win_rate": 0.51, "opening_hand_win_rate": 0.5,
	 "ever_drawn_win_rate": 0.52, "drawn_improvement_win_rate": 0.0}
]`

const mtgjsonPayload = `{"data": {"code": "BLB", "cards": [
	{"name": "Mabel, Heir to Cragflame", "manaCost": "{1}{R}{W}", "manaValue": 3, "colors": ["R", "W"],
	 "supertypes": ["Legendary"], "types": ["Creature"], "subtypes": ["Mouse", "Soldier"],
	 "rarity": "rare", "identifiers": {"mtgArenaId": "101"}}
]}}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/card_ratings/data", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ratingsPayload))
	})
	mux.HandleFunc("/mtgjson/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(mtgjsonPayload))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// writeTestConfig saves a config pointing every path into a temp dir.
func writeTestConfig(t *testing.T, serverURL string) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()

	c := config.DefaultConfig()
	c.Fetch.SetCode = "BLB"
	c.Fetch.CacheDir = filepath.Join(dir, "cache")
	c.Fetch.BaseURL = serverURL
	c.Fetch.RequestDelay = "1ms"
	c.Metadata.MTGJSONURL = serverURL + "/mtgjson/%s.json"
	c.Metadata.ScryfallURL = serverURL + "/scryfall"
	c.Metadata.PageDelay = "1ms"
	c.Output.ArtifactsDir = filepath.Join(dir, "artifacts")
	c.Output.GradesPath = filepath.Join(dir, "artifacts", "pro_grades.json")
	c.Output.ReportPath = filepath.Join(dir, "report.html")
	c.Storage.DBPath = filepath.Join(dir, "history.db")
	c.Simulator.LogPath = filepath.Join(dir, "logs", "Player.log")
	c.Simulator.EventDate = "20260117"
	c.Simulator.Pause = "0s"

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, c.Save(path))
	return path, c
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(t, context.Background(), args...)
}

func runContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestFetchThenDownstreamCommands(t *testing.T) {
	server := newTestServer(t)
	configFile, c := writeTestConfig(t, server.URL)

	out, err := run(t, "--config", configFile, "fetch")
	require.NoError(t, err, out)
	assert.Contains(t, out, "BLB PremierDraft")
	assert.Contains(t, out, "1 cards from mtgjson")
	assert.Contains(t, out, "(first fetch)")
	assert.Contains(t, out, "17Lands:      11 requests, 0 failed")

	art, err := artifact.Load(artifact.Path(c.Output.ArtifactsDir, "BLB"))
	require.NoError(t, err)
	require.Len(t, art, 3)
	assert.Equal(t, 3.0, art["101"].CMC)
	assert.Len(t, art["101"].ColorPairScores, 10)

	out, err = run(t, "--config", configFile, "simulate", "blb", "--seed", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "pack sent to log")

	data, err := os.ReadFile(c.Simulator.LogPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PremierDraft_BLB_20260117")
	pack, ok := logreader.ParseLine(lines[1])
	require.True(t, ok)
	assert.NotEmpty(t, pack.Pack)

	reportPath := filepath.Join(t.TempDir(), "top.html")
	out, err = run(t, "--config", configFile, "report", "BLB", "--output", reportPath, "--top", "2")
	require.NoError(t, err, out)
	html, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "BLB: top 2 cards")

	out, err = run(t, "--config", configFile, "history", "BLB", "--cards", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "FINGERPRINT")
	assert.Contains(t, out, "1600")
	assert.Contains(t, out, "Top cards in BLB")

	out, err = run(t, "--config", configFile, "fetch", "BLB")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(was 1600)")
	assert.Contains(t, out, "(cached)")
	assert.Contains(t, out, "17Lands:      1 requests, 0 failed")
}

func TestSimulateWithoutArtifact(t *testing.T) {
	configFile, _ := writeTestConfig(t, "http://127.0.0.1:0")

	_, err := run(t, "--config", configFile, "simulate", "ZZZ", "--seed", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run fetch first")
}

func TestGradesCommands(t *testing.T) {
	configFile, c := writeTestConfig(t, "http://127.0.0.1:0")

	out, err := run(t, "--config", configFile, "grades", "json", filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Export not found")

	export := filepath.Join(t.TempDir(), "lsv.json")
	require.NoError(t, os.WriteFile(export, []byte(`{"cards": [{"name": "Pond Prophet (BLB)", "lsv_rating": 3.5}]}`), 0o644))

	out, err = run(t, "--config", configFile, "grades", "json", export)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Extracted 1 ratings")
	assert.FileExists(t, c.Output.GradesPath)
}

func TestMigrateStatus(t *testing.T) {
	configFile, _ := writeTestConfig(t, "http://127.0.0.1:0")

	out, err := run(t, "--config", configFile, "migrate", "up")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Current version: 1")

	out, err = run(t, "--config", configFile, "migrate", "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Current version: 1")
}

func TestPackScorer(t *testing.T) {
	dir := t.TempDir()
	_, err := artifact.Save(dir, "BLB", artifact.Artifact{
		"1": {Name: "Strong", ZGih: 2, Confidence: 1, ColorPairScores: map[string]float64{}},
		"2": {Name: "Weak", ZGih: -1, Confidence: 1, ColorPairScores: map[string]float64{}},
	})
	require.NoError(t, err)

	scorer := newPackScorer(dir)
	var buf bytes.Buffer
	scorer.handle(&buf, &logreader.DraftEvent{Kind: logreader.EventPack, Expansion: "BLB", PickNumber: 1, Pack: []string{"2", "1", "99"}}, 0)

	out := buf.String()
	assert.Contains(t, out, "BLB pick 1 (3 cards, 2 rated)")
	assert.Less(t, strings.Index(out, "Strong"), strings.Index(out, "Weak"))

	buf.Reset()
	scorer.handle(&buf, &logreader.DraftEvent{Kind: logreader.EventPack, Expansion: "DSK", Pack: []string{"1"}}, 0)
	assert.Empty(t, buf.String(), "sets without an artifact are skipped")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "arena-overlay")
}

func TestWatchReportsMissingLog(t *testing.T) {
	configFile, c := writeTestConfig(t, "http://127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runContext(t, ctx, "--config", configFile, "watch", "--log-path", c.Simulator.LogPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Log file not found: "+c.Simulator.LogPath)
	assert.Contains(t, out, "Stopped.")
}

func TestWatchRejectsDirectory(t *testing.T) {
	configFile, _ := writeTestConfig(t, "http://127.0.0.1:0")

	_, err := run(t, "--config", configFile, "watch", "--log-path", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
