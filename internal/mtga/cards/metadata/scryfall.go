package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ramonehamilton/arena-overlay/internal/mtga/cards/scryfall"
)

// CardSearcher is the part of the Scryfall client the resolver needs.
type CardSearcher interface {
	SearchCards(ctx context.Context, query string) (*scryfall.SearchResult, error)
	NextPage(ctx context.Context, page *scryfall.SearchResult) (*scryfall.SearchResult, error)
}

// ScryfallResolver pages through an `e:{set}` search. The client's rate
// limiter spaces the page requests.
type ScryfallResolver struct {
	client CardSearcher
}

// NewScryfallResolver creates the secondary metadata resolver.
func NewScryfallResolver(client CardSearcher) *ScryfallResolver {
	return &ScryfallResolver{client: client}
}

// Name implements Resolver.
func (s *ScryfallResolver) Name() string { return "scryfall" }

// Resolve implements Resolver.
func (s *ScryfallResolver) Resolve(ctx context.Context, set string) (map[string]*Record, error) {
	query := "e:" + strings.ToLower(set)

	page, err := s.client.SearchCards(ctx, query)
	if err != nil {
		return nil, classifyScryfallError(err)
	}

	records := make(map[string]*Record)
	pageNum := 1
	for page != nil {
		for i := range page.Data {
			if rec := recordFromScryfall(&page.Data[i]); rec != nil {
				records[rec.ArenaID] = rec
			}
		}

		pageNum++
		page, err = s.client.NextPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, classifyScryfallError(err))
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no Arena cards in %s", ErrNoData, set)
	}
	return records, nil
}

func classifyScryfallError(err error) error {
	switch {
	case scryfall.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNoData, err)
	case scryfall.IsMalformed(err):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
}

// recordFromScryfall converts a search hit. Cards without an Arena ID are not
// on the platform and yield nil.
func recordFromScryfall(card *scryfall.Card) *Record {
	if card.ArenaID == nil {
		return nil
	}

	rec := &Record{
		ArenaID:  strconv.Itoa(*card.ArenaID),
		Name:     card.Name,
		ManaCost: card.ManaCost,
		CMC:      card.CMC,
		Types:    parseTypeLine(card.TypeLine),
		Colors:   card.Colors,
		Keywords: card.Keywords,
		Rarity:   card.Rarity,
		Source:   "scryfall",
	}

	if len(card.CardFaces) > 0 {
		var costs []string
		var types []string
		var colors []string
		for _, face := range card.CardFaces {
			if face.ManaCost != "" {
				costs = append(costs, face.ManaCost)
			}
			types = appendUnique(types, parseTypeLine(face.TypeLine)...)
			colors = appendUnique(colors, face.Colors...)
		}
		if rec.ManaCost == "" {
			rec.ManaCost = strings.Join(costs, " // ")
		}
		if len(types) > 0 {
			rec.Types = types
		}
		if len(rec.Colors) == 0 {
			rec.Colors = colors
		}
	}

	if raw, err := json.Marshal(card); err == nil {
		rec.Raw = raw
	}

	return rec
}

// parseTypeLine splits a type line into individual types.
// Example: "Legendary Creature — Elf Warrior" -> ["Legendary", "Creature", "Elf", "Warrior"]
// Split-card markers and stray dashes are dropped.
func parseTypeLine(typeLine string) []string {
	types := []string{}
	for _, part := range strings.Split(typeLine, "—") {
		for _, tok := range strings.Fields(part) {
			switch tok {
			case "—", "//", "-":
				continue
			}
			types = append(types, tok)
		}
	}
	return types
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
