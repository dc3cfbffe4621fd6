package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "ARENA_OVERLAY_"

// Config represents the application configuration.
type Config struct {
	// 17Lands fetch configuration
	Fetch FetchConfig `toml:"fetch"`

	// Card metadata sources
	Metadata MetadataConfig `toml:"metadata"`

	// Output locations
	Output OutputConfig `toml:"output"`

	// Snapshot history database
	Storage StorageConfig `toml:"storage"`

	// Draft log simulator
	Simulator SimulatorConfig `toml:"simulator"`
}

// FetchConfig contains 17Lands fetch settings.
type FetchConfig struct {
	SetCode      string   `toml:"set_code"`      // Default set code (e.g., "TLA")
	Format       string   `toml:"format"`        // Draft format
	ColorPairs   []string `toml:"color_pairs"`   // Two-color decks fetched per run
	CacheDir     string   `toml:"cache_dir"`     // Raw payload cache directory
	CacheTTL     string   `toml:"cache_ttl"`     // Cache freshness window (e.g., "8h")
	RequestDelay string   `toml:"request_delay"` // Delay between requests
	UserAgent    string   `toml:"user_agent"`    // User-Agent header
	BaseURL      string   `toml:"base_url"`      // 17Lands base URL
}

// MetadataConfig contains card metadata source settings.
type MetadataConfig struct {
	MTGJSONURL  string `toml:"mtgjson_url"`  // Per-set URL template, %s is the set code
	ScryfallURL string `toml:"scryfall_url"` // Scryfall API base URL
	PageDelay   string `toml:"page_delay"`   // Delay between Scryfall pages
}

// OutputConfig contains output locations.
type OutputConfig struct {
	ArtifactsDir string `toml:"artifacts_dir"` // Directory of cards_{SET}.json
	GradesPath   string `toml:"grades_path"`   // Pro grades file
	ReportPath   string `toml:"report_path"`   // HTML report path
	ReportTop    int    `toml:"report_top"`    // Cards shown in the report
}

// StorageConfig contains snapshot history settings.
type StorageConfig struct {
	Enabled bool   `toml:"enabled"` // Record a snapshot per fetch
	DBPath  string `toml:"db_path"` // SQLite database path
}

// SimulatorConfig contains draft log simulator settings.
type SimulatorConfig struct {
	LogPath   string `toml:"log_path"`   // Player.log override, empty uses the platform default
	EventDate string `toml:"event_date"` // YYYYMMDD used in the event name, empty uses today
	Format    string `toml:"format"`     // Event format prefix
	Pause     string `toml:"pause"`      // Pause between the join and pack lines
}

// DefaultColorPairs are the ten two-color pairs 17Lands reports on.
var DefaultColorPairs = []string{"WU", "UB", "BR", "RG", "GW", "WB", "UR", "BG", "RW", "GU"}

// DefaultConfig returns the default configuration rooted at ~/.arena-overlay.
func DefaultConfig() *Config {
	return defaultConfigIn(baseDir())
}

func defaultConfigIn(dir string) *Config {
	artifacts := filepath.Join(dir, "artifacts")
	return &Config{
		Fetch: FetchConfig{
			SetCode:      "TLA",
			Format:       "PremierDraft",
			ColorPairs:   append([]string(nil), DefaultColorPairs...),
			CacheDir:     filepath.Join(dir, "cache"),
			CacheTTL:     "8h",
			RequestDelay: "1.5s",
			UserAgent:    "arena-overlay/1.0",
			BaseURL:      "https://www.17lands.com",
		},
		Metadata: MetadataConfig{
			MTGJSONURL:  "https://mtgjson.com/api/v5/%s.json",
			ScryfallURL: "https://api.scryfall.com",
			PageDelay:   "100ms",
		},
		Output: OutputConfig{
			ArtifactsDir: artifacts,
			GradesPath:   filepath.Join(artifacts, "pro_grades.json"),
			ReportPath:   filepath.Join(dir, "report.html"),
			ReportTop:    40,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  filepath.Join(dir, "history.db"),
		},
		Simulator: SimulatorConfig{
			LogPath:   "",
			EventDate: "",
			Format:    "PremierDraft",
			Pause:     "500ms",
		},
	}
}

func baseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".arena-overlay"
	}
	return filepath.Join(homeDir, ".arena-overlay")
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

// Load loads the configuration from path, or from DefaultPath when path is
// empty. A missing file yields the default config. Environment overrides from
// .env files and the process environment are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	loadDotEnv(filepath.Dir(path))
	config.applyEnv(os.Getenv)

	return config, nil
}

// loadDotEnv loads the first .env found in the working directory or dir.
// Variables already set in the environment win.
func loadDotEnv(dir string) {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, filepath.Join(dir, ".env"))

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"SET", &c.Fetch.SetCode},
		{"FORMAT", &c.Fetch.Format},
		{"CACHE_DIR", &c.Fetch.CacheDir},
		{"ARTIFACTS_DIR", &c.Output.ArtifactsDir},
		{"GRADES_PATH", &c.Output.GradesPath},
		{"DB_PATH", &c.Storage.DBPath},
		{"LOG_PATH", &c.Simulator.LogPath},
	}
	for _, o := range overrides {
		if value := getenv(EnvPrefix + o.key); value != "" {
			*o.target = value
		}
	}
	if value := getenv(EnvPrefix + "STORAGE"); value != "" {
		c.Storage.Enabled = value != "0" && !strings.EqualFold(value, "false")
	}
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := map[string]string{
		"fetch.cache_ttl":     c.Fetch.CacheTTL,
		"fetch.request_delay": c.Fetch.RequestDelay,
		"metadata.page_delay": c.Metadata.PageDelay,
		"simulator.pause":     c.Simulator.Pause,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s cannot be negative: %s", name, value)
		}
	}

	if c.Fetch.Format == "" {
		return fmt.Errorf("fetch.format is required")
	}
	for _, pair := range c.Fetch.ColorPairs {
		if len(pair) != 2 || strings.Trim(strings.ToUpper(pair), "WUBRG") != "" {
			return fmt.Errorf("invalid color pair %q", pair)
		}
	}
	if !strings.Contains(c.Metadata.MTGJSONURL, "%s") {
		return fmt.Errorf("metadata.mtgjson_url must contain %%s: %q", c.Metadata.MTGJSONURL)
	}
	if c.Simulator.EventDate != "" {
		if _, err := time.Parse("20060102", c.Simulator.EventDate); err != nil {
			return fmt.Errorf("invalid simulator.event_date %q: %w", c.Simulator.EventDate, err)
		}
	}
	if c.Output.ReportTop < 0 {
		return fmt.Errorf("output.report_top cannot be negative: %d", c.Output.ReportTop)
	}

	return nil
}

// SetCode returns the upper-cased set code from arg, falling back to the
// configured default.
func (c *Config) SetCode(arg string) (string, error) {
	code := strings.TrimSpace(arg)
	if code == "" {
		code = c.Fetch.SetCode
	}
	if code == "" {
		return "", fmt.Errorf("no set code given and fetch.set_code is not configured")
	}
	return strings.ToUpper(code), nil
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Fetch.CacheTTL)
}

// GetRequestDelay returns the delay between 17Lands requests.
func (c *Config) GetRequestDelay() (time.Duration, error) {
	return time.ParseDuration(c.Fetch.RequestDelay)
}

// GetPageDelay returns the delay between Scryfall search pages.
func (c *Config) GetPageDelay() (time.Duration, error) {
	return time.ParseDuration(c.Metadata.PageDelay)
}

// GetSimulatorPause returns the simulator's pause between lines.
func (c *Config) GetSimulatorPause() (time.Duration, error) {
	return time.ParseDuration(c.Simulator.Pause)
}

// EventDate returns the simulator event date, or now when unset.
func (c *Config) EventDate(now time.Time) time.Time {
	if c.Simulator.EventDate == "" {
		return now
	}
	t, err := time.Parse("20060102", c.Simulator.EventDate)
	if err != nil {
		return now
	}
	return t
}
