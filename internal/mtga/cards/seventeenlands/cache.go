package seventeenlands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AllColors is the cache-key label for the whole-format (unfiltered) dataset.
const AllColors = "all"

// CacheKey identifies one cached 17Lands dataset.
type CacheKey struct {
	Set    string
	Format string
	Colors string // two-letter color pair, or "" for the whole format
}

// Params returns the query parameters that produce this dataset.
func (k CacheKey) Params() QueryParams {
	return QueryParams{
		Expansion: k.Set,
		Format:    k.Format,
		Colors:    k.Colors,
	}
}

func (k CacheKey) String() string {
	colors := k.Colors
	if colors == "" {
		colors = AllColors
	}
	return fmt.Sprintf("%s_%s_%s", strings.ToUpper(k.Set), k.Format, colors)
}

// Cache stores raw 17Lands payloads on disk, one file per CacheKey.
// File modification time is the freshness oracle.
type Cache struct {
	dir string
	now func() time.Time
}

// NewCache creates a file cache rooted at dir. The directory is created lazily.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// Path returns the deterministic file path for key.
func (c *Cache) Path(key CacheKey) string {
	return filepath.Join(c.dir, key.String()+".json")
}

// Load returns the cached payload for key. A missing entry returns (nil, false, nil).
func (c *Cache) Load(key CacheKey) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", key, err)
	}
	return data, true, nil
}

// Store writes body for key, creating the cache directory if needed.
func (c *Cache) Store(key CacheKey, body []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(c.Path(key), body, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", key, err)
	}
	return nil
}

// Age returns how long ago key was written. ok is false when there is no entry.
func (c *Cache) Age(key CacheKey) (age time.Duration, ok bool) {
	info, err := os.Stat(c.Path(key))
	if err != nil {
		return 0, false
	}
	return c.now().Sub(info.ModTime()), true
}

// Fresh reports whether key exists and is younger than ttl.
func (c *Cache) Fresh(key CacheKey, ttl time.Duration) bool {
	age, ok := c.Age(key)
	return ok && age < ttl
}
