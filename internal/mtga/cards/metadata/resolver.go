// Package metadata resolves per-set card metadata keyed by Arena ID.
//
// Sources are tried in order through a Chain; the first one that returns a
// non-empty map wins.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

var (
	// ErrNoData means the source answered but had nothing usable for the set.
	ErrNoData = errors.New("no metadata available")
	// ErrFetchFailed means the source could not be reached or refused the request.
	ErrFetchFailed = errors.New("metadata fetch failed")
	// ErrMalformed means the source answered with a payload that could not be decoded.
	ErrMalformed = errors.New("malformed metadata payload")
)

// Record is the metadata of one card.
type Record struct {
	ArenaID  string          `json:"arenaId"`
	Name     string          `json:"name"`
	ManaCost string          `json:"manaCost,omitempty"`
	CMC      float64         `json:"cmc"`
	Types    []string        `json:"types,omitempty"`
	Colors   []string        `json:"colors,omitempty"`
	Keywords []string        `json:"keywords,omitempty"`
	Rarity   string          `json:"rarity,omitempty"`
	Source   string          `json:"source"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Resolver looks up every card of a set.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, set string) (map[string]*Record, error)
}

// Attempt records the outcome of one resolver within a chain run.
type Attempt struct {
	Resolver string
	Records  int
	Err      error
}

// ChainResult is what a Chain produced and how it got there.
type ChainResult struct {
	Records  map[string]*Record
	Source   string
	Attempts []Attempt
}

// Chain tries resolvers in order.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a chain over the given resolvers, primary first.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Resolve returns the first non-empty result. When every resolver fails the
// result has an empty map and the error of the last attempt; callers fall
// back to the defaults carried in the statistics payload.
func (c *Chain) Resolve(ctx context.Context, set string) (*ChainResult, error) {
	result := &ChainResult{Records: map[string]*Record{}}
	var lastErr error = ErrNoData

	for _, r := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		records, err := r.Resolve(ctx, set)
		if err == nil && len(records) == 0 {
			err = fmt.Errorf("%s: %w", r.Name(), ErrNoData)
		}
		result.Attempts = append(result.Attempts, Attempt{Resolver: r.Name(), Records: len(records), Err: err})

		if err != nil {
			log.Printf("[Metadata] %s yielded nothing for %s: %v", r.Name(), set, err)
			lastErr = err
			continue
		}

		log.Printf("[Metadata] %s resolved %d cards for %s", r.Name(), len(records), set)
		result.Records = records
		result.Source = r.Name()
		return result, nil
	}

	return result, lastErr
}
