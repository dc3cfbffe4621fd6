package seventeenlands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

const sampleRatings = `[
	{
		"name": "Lightning Bolt",
		"mtga_id": 12345,
		"color": "R",
		"rarity": "common",
		"url": "https://cards.scryfall.io/large/front/a/b/ab.jpg",
		"types": ["Instant"],
		"seen_count": 400,
		"avg_seen": 4.2,
		"avg_pick": 3.1,
		"game_count": 1000,
		"win_rate": 0.56,
		"opening_hand_win_rate": 0.58,
		"ever_drawn_win_rate": 0.60,
		"drawn_improvement_win_rate": 0.04
	},
	{
		"name": "Unplayed Card",
		"mtga_id": 12346,
		"rarity": "rare",
		"seen_count": null,
		"game_count": 0,
		"ever_drawn_win_rate": null
	}
]`

func newTestClient(serverURL string) *Client {
	opts := DefaultClientOptions()
	opts.RateLimit = rate.Inf // No rate limiting for tests
	opts.BaseURL = serverURL
	return NewClient(opts)
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientOptions{})

	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.httpClient == nil {
		t.Error("HTTP client is nil")
	}
	if client.limiter == nil {
		t.Error("Rate limiter is nil")
	}
	if client.baseURL != APIBase {
		t.Errorf("Expected base URL %s, got %s", APIBase, client.baseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("Expected user agent %q, got %q", DefaultUserAgent, client.userAgent)
	}
}

func TestFetchCardRatings_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/card_ratings/data" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("expansion") != "BLB" {
			t.Errorf("Expected expansion BLB, got %s", query.Get("expansion"))
		}
		if query.Get("format") != "PremierDraft" {
			t.Errorf("Expected format PremierDraft, got %s", query.Get("format"))
		}
		if query.Get("colors") != "WU" {
			t.Errorf("Expected colors WU, got %s", query.Get("colors"))
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("Unexpected user agent: %s", r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleRatings))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, err := client.FetchCardRatings(context.Background(), QueryParams{
		Expansion: "BLB",
		Format:    "PremierDraft",
		Colors:    "WU",
	})
	if err != nil {
		t.Fatalf("FetchCardRatings failed: %v", err)
	}
	ratings, err := ParseCardRatings(body)
	if err != nil {
		t.Fatalf("ParseCardRatings failed: %v", err)
	}

	if len(ratings) != 2 {
		t.Fatalf("Expected 2 ratings, got %d", len(ratings))
	}

	bolt := ratings[0]
	if bolt.ArenaID() != "12345" {
		t.Errorf("Expected arena ID 12345, got %s", bolt.ArenaID())
	}
	if bolt.GIHWR == nil || *bolt.GIHWR != 0.60 {
		t.Errorf("Expected GIHWR 0.60, got %v", bolt.GIHWR)
	}
	if bolt.SeenCount == nil || *bolt.SeenCount != 400 {
		t.Errorf("Expected seen count 400, got %v", bolt.SeenCount)
	}

	unplayed := ratings[1]
	if unplayed.GIHWR != nil {
		t.Errorf("Expected nil GIHWR for null field, got %v", *unplayed.GIHWR)
	}
	if unplayed.OHWR != nil {
		t.Errorf("Expected nil OHWR for absent field, got %v", *unplayed.OHWR)
	}

	stats := client.GetStats()
	if stats.TotalRequests != 1 || stats.FailedRequests != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestFetchCardRatings_MissingParams(t *testing.T) {
	client := NewClient(DefaultClientOptions())
	ctx := context.Background()

	_, err := client.FetchCardRatings(ctx, QueryParams{Format: "PremierDraft"})
	if ErrorType(err) != ErrInvalidParams {
		t.Errorf("Expected invalid params error for missing expansion, got %v", err)
	}

	_, err = client.FetchCardRatings(ctx, QueryParams{Expansion: "BLB"})
	if ErrorType(err) != ErrInvalidParams {
		t.Errorf("Expected invalid params error for missing format, got %v", err)
	}
}

func TestFetchCardRatings_ErrorTypes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType string
	}{
		{"not found", http.StatusNotFound, "", ErrNotFound},
		{"server error", http.StatusInternalServerError, "boom", ErrUnavailable},
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
		{"malformed", http.StatusOK, `{"error": "not an array"}`, ErrParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			body, err := client.FetchCardRatings(context.Background(), QueryParams{Expansion: "BLB", Format: "PremierDraft"})
			if err == nil {
				_, err = ParseCardRatings(body)
			}
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := ErrorType(err); got != tt.wantType {
				t.Errorf("Expected error type %s, got %s (%v)", tt.wantType, got, err)
			}
		})
	}
}

func TestCardRatingsURL_OmitsEmptyColors(t *testing.T) {
	client := newTestClient("https://example.test/")
	got := client.CardRatingsURL(QueryParams{Expansion: "DSK", Format: "PremierDraft"})
	want := "https://example.test/card_ratings/data?expansion=DSK&format=PremierDraft"
	if got != want {
		t.Errorf("CardRatingsURL() = %s, want %s", got, want)
	}
}

func TestRecordFailureAndSuccess(t *testing.T) {
	client := NewClient(DefaultClientOptions())

	client.recordFailure()
	client.recordFailure()
	if stats := client.GetStats(); stats.ConsecutiveErrors != 2 || stats.FailedRequests != 2 {
		t.Errorf("Unexpected stats after failures: %+v", stats)
	}

	client.recordSuccess(0)
	if stats := client.GetStats(); stats.ConsecutiveErrors != 0 {
		t.Errorf("Expected consecutive errors to reset, got %d", stats.ConsecutiveErrors)
	}
}
