package seventeenlands

import (
	"context"
	"log"
	"time"
)

// DefaultCacheTTL is how long a cached dataset is served without a network call.
const DefaultCacheTTL = 8 * time.Hour

// FetchMode selects how the Fetcher treats the local cache.
type FetchMode int

const (
	// FetchNormal serves a fresh cache entry, otherwise hits the network.
	FetchNormal FetchMode = iota
	// FetchForce always hits the network (used for the canary dataset).
	FetchForce
	// FetchCacheOnly never hits the network; any cached copy is served regardless of age.
	FetchCacheOnly
)

func (m FetchMode) String() string {
	switch m {
	case FetchForce:
		return "force"
	case FetchCacheOnly:
		return "cache-only"
	default:
		return "normal"
	}
}

// Source records where a Result came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
	SourceNone    Source = "none"
)

// Result is the outcome of a Fetch. An empty Ratings slice means
// "skip this slice and keep prior state".
type Result struct {
	Key     CacheKey
	Ratings []CardRating
	Raw     []byte
	Source  Source
}

// Empty reports whether the result carries no cards.
func (r *Result) Empty() bool {
	return r == nil || len(r.Ratings) == 0
}

// RatingsSource downloads raw card ratings payloads. *Client satisfies it.
type RatingsSource interface {
	FetchCardRatings(ctx context.Context, params QueryParams) ([]byte, error)
}

// Fetcher combines a RatingsSource with a file Cache.
type Fetcher struct {
	source RatingsSource
	cache  *Cache
	ttl    time.Duration
}

// NewFetcher creates a cached fetcher. A zero ttl uses DefaultCacheTTL.
func NewFetcher(source RatingsSource, cache *Cache, ttl time.Duration) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Fetcher{source: source, cache: cache, ttl: ttl}
}

// Cache returns the underlying file cache.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Fetch returns the dataset for key according to mode.
//
// On network or decode failure the error is logged and returned together with
// an empty Result; the cache entry is left untouched so prior state survives.
func (f *Fetcher) Fetch(ctx context.Context, key CacheKey, mode FetchMode) (*Result, error) {
	if mode != FetchForce {
		fresh := f.cache.Fresh(key, f.ttl)
		if fresh || mode == FetchCacheOnly {
			result, err := f.fromCache(key)
			if err == nil && result != nil {
				return result, nil
			}
			if err != nil {
				log.Printf("[Fetcher] Ignoring unreadable cache for %s: %v", key, err)
			}
		}
		if mode == FetchCacheOnly {
			log.Printf("[Fetcher] No cached copy of %s, skipping", key)
			return &Result{Key: key, Source: SourceNone}, nil
		}
	}

	return f.fromNetwork(ctx, key)
}

// Previous returns the currently cached ratings for key, whatever their age.
// It is read before a forced refresh overwrites the entry.
func (f *Fetcher) Previous(key CacheKey) ([]CardRating, bool) {
	result, err := f.fromCache(key)
	if err != nil {
		log.Printf("[Fetcher] Previous copy of %s unreadable: %v", key, err)
		return nil, false
	}
	if result == nil {
		return nil, false
	}
	return result.Ratings, true
}

func (f *Fetcher) fromCache(key CacheKey) (*Result, error) {
	body, ok, err := f.cache.Load(key)
	if err != nil || !ok {
		return nil, err
	}

	ratings, err := ParseCardRatings(body)
	if err != nil {
		return nil, err
	}

	return &Result{Key: key, Ratings: ratings, Raw: body, Source: SourceCache}, nil
}

func (f *Fetcher) fromNetwork(ctx context.Context, key CacheKey) (*Result, error) {
	body, err := f.source.FetchCardRatings(ctx, key.Params())
	if err != nil {
		log.Printf("[Fetcher] Failed to fetch %s: %v", key, err)
		return &Result{Key: key, Source: SourceNone}, err
	}

	ratings, err := ParseCardRatings(body)
	if err != nil {
		log.Printf("[Fetcher] Malformed payload for %s: %v", key, err)
		return &Result{Key: key, Source: SourceNone}, err
	}

	if err := f.cache.Store(key, body); err != nil {
		log.Printf("[Fetcher] Warning: could not cache %s: %v", key, err)
	}

	log.Printf("[Fetcher] Fetched %d card ratings for %s", len(ratings), key)
	return &Result{Key: key, Ratings: ratings, Raw: body, Source: SourceNetwork}, nil
}

// Fingerprint is a cheap, order-independent checksum of a dataset: the sum of
// every card's seen count, treating missing counts as zero. Unrelated states
// can collide.
func Fingerprint(ratings []CardRating) int64 {
	var sum int64
	for _, r := range ratings {
		if r.SeenCount != nil {
			sum += int64(*r.SeenCount)
		}
	}
	return sum
}

// PairsNeedRefresh decides whether the per-color-pair datasets must be fetched again.
// Without a previous fingerprint there is nothing to compare, so they are refreshed.
func PairsNeedRefresh(previous, current int64, hadPrevious bool) bool {
	if !hadPrevious {
		return true
	}
	return previous != current
}
