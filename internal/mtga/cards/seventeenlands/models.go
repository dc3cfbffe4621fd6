package seventeenlands

import (
	"errors"
	"strconv"
	"time"
)

// CardRating is one row of the 17Lands card_ratings/data payload.
//
// Rates are fractions (0.57 = 57%). Nullable metrics are pointers so that a
// field the payload omits (or sends as null) can be told apart from zero.
type CardRating struct {
	// Basic card information
	Name   string   `json:"name"`
	MTGAID int      `json:"mtga_id"`
	Color  string   `json:"color"`
	Rarity string   `json:"rarity"`
	URL    string   `json:"url"`
	Types  []string `json:"types,omitempty"`
	Layout string   `json:"layout,omitempty"`

	// Pick metrics
	SeenCount *int     `json:"seen_count"`
	ALSA      *float64 `json:"avg_seen"` // Average Last Seen At
	PickCount *int     `json:"pick_count"`
	ATA       *float64 `json:"avg_pick"` // Average Taken At

	// Game counts
	GameCount          int `json:"game_count"`
	OpeningHandCount   int `json:"opening_hand_game_count,omitempty"`
	EverDrawnGameCount int `json:"ever_drawn_game_count,omitempty"`

	// Win rate metrics
	GPWR  *float64 `json:"win_rate"`                   // Game Present Win Rate
	OHWR  *float64 `json:"opening_hand_win_rate"`      // Opening Hand Win Rate
	GIHWR *float64 `json:"ever_drawn_win_rate"`        // Games In Hand Win Rate
	IWD   *float64 `json:"drawn_improvement_win_rate"` // Improvement When Drawn
}

// ArenaID returns the card's platform ID in the textual form used as artifact key.
func (r CardRating) ArenaID() string {
	if r.MTGAID == 0 {
		return ""
	}
	return strconv.Itoa(r.MTGAID)
}

// QueryParams holds parameters for 17Lands API queries.
type QueryParams struct {
	// Required parameters
	Expansion string // Set code (e.g., "BLB", "MKM")
	Format    string // Format (e.g., "PremierDraft", "QuickDraft", "TradDraft")

	// Optional parameters
	StartDate string // YYYY-MM-DD format
	EndDate   string // YYYY-MM-DD format
	Colors    string // Deck color filter (e.g., "WU"); empty for the whole format
}

// ClientStats tracks 17Lands API client statistics.
type ClientStats struct {
	TotalRequests     int
	FailedRequests    int
	AverageLatency    time.Duration
	LastRequestTime   time.Time
	LastSuccessTime   time.Time
	LastFailureTime   time.Time
	ConsecutiveErrors int
}

// Error types for 17Lands API
const (
	ErrRateLimited   = "rate_limited"
	ErrUnavailable   = "unavailable" // Request could not be completed
	ErrNotFound      = "not_found"   // Endpoint answered 404
	ErrInvalidParams = "invalid_params"
	ErrParseError    = "parse_error" // Body was not a card ratings array
)

// APIError represents an error from the 17Lands API.
type APIError struct {
	Type       string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorType returns the APIError type carried by err, or "" when err is not an APIError.
func ErrorType(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ""
}
