package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMTGJSONURL is the per-set bulk document. %s is the upper-case set code.
const DefaultMTGJSONURL = "https://mtgjson.com/api/v5/%s.json"

// mtgjsonSet is the subset of an MTGJSON set file we read.
type mtgjsonSet struct {
	Data struct {
		Code  string            `json:"code"`
		Cards []json.RawMessage `json:"cards"`
	} `json:"data"`
}

type mtgjsonCard struct {
	Name        string             `json:"name"`
	ManaCost    string             `json:"manaCost"`
	ManaValue   float64            `json:"manaValue"`
	Colors      []string           `json:"colors"`
	Supertypes  []string           `json:"supertypes"`
	Types       []string           `json:"types"`
	Subtypes    []string           `json:"subtypes"`
	Keywords    []string           `json:"keywords"`
	Rarity      string             `json:"rarity"`
	Identifiers mtgjsonIdentifiers `json:"identifiers"`
}

type mtgjsonIdentifiers struct {
	MTGArenaID string `json:"mtgArenaId"`
}

// MTGJSONResolver reads the bulk per-set document. It is the richer source:
// rarity is included and every record embeds the raw card object.
type MTGJSONResolver struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	urlTemplate string
	userAgent   string
}

// MTGJSONOptions configures an MTGJSONResolver.
type MTGJSONOptions struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// NewMTGJSONResolver creates the primary metadata resolver.
func NewMTGJSONResolver(opts MTGJSONOptions) *MTGJSONResolver {
	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultMTGJSONURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ArenaOverlay/0.1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &MTGJSONResolver{
		httpClient:  opts.HTTPClient,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		urlTemplate: opts.URLTemplate,
		userAgent:   opts.UserAgent,
	}
}

// Name implements Resolver.
func (m *MTGJSONResolver) Name() string { return "mtgjson" }

// Resolve implements Resolver.
func (m *MTGJSONResolver) Resolve(ctx context.Context, set string) (map[string]*Record, error) {
	url := fmt.Sprintf(m.urlTemplate, strings.ToUpper(set))

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s not published at %s", ErrNoData, set, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrFetchFailed, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}

	return ParseMTGJSON(body)
}

// ParseMTGJSON converts an MTGJSON set document into records keyed by Arena ID.
// Cards without an Arena ID are skipped. For multi-faced cards the first face
// listed keeps the record.
func ParseMTGJSON(body []byte) (map[string]*Record, error) {
	var doc mtgjsonSet
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	records := make(map[string]*Record, len(doc.Data.Cards))
	for _, raw := range doc.Data.Cards {
		var card mtgjsonCard
		if err := json.Unmarshal(raw, &card); err != nil {
			return nil, fmt.Errorf("%w: card entry: %v", ErrMalformed, err)
		}

		id := card.Identifiers.MTGArenaID
		if id == "" {
			continue
		}
		if _, exists := records[id]; exists {
			continue
		}

		types := make([]string, 0, len(card.Supertypes)+len(card.Types)+len(card.Subtypes))
		types = append(types, card.Supertypes...)
		types = append(types, card.Types...)
		types = append(types, card.Subtypes...)

		records[id] = &Record{
			ArenaID:  id,
			Name:     card.Name,
			ManaCost: card.ManaCost,
			CMC:      card.ManaValue,
			Types:    types,
			Colors:   card.Colors,
			Keywords: card.Keywords,
			Rarity:   card.Rarity,
			Source:   "mtgjson",
			Raw:      raw,
		}
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}
