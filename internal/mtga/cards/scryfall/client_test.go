package scryfall

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	return NewClientWithOptions(ClientOptions{
		BaseURL: serverURL,
		Delay:   time.Millisecond,
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.httpClient == nil {
		t.Error("httpClient is nil")
	}
	if client.rateLimiter == nil {
		t.Error("rateLimiter is nil")
	}
	if client.userAgent == "" {
		t.Error("userAgent is empty")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected base URL %s, got %s", baseURL, client.baseURL)
	}
}

func TestClient_RateLimiting(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"test","name":"Test Card"}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{BaseURL: server.URL, Delay: 100 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		var card Card
		if err := client.doRequest(ctx, server.URL, &card); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}

	// Two delays of 100ms between three requests
	if minDuration := 200 * time.Millisecond; elapsed < minDuration {
		t.Errorf("Rate limiting not working: completed 3 requests in %v (expected >= %v)", elapsed, minDuration)
	}
}

func TestClient_SearchCardsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "":
			if q := r.URL.Query().Get("q"); q != "e:blb" {
				t.Errorf("Expected query e:blb, got %q", q)
			}
			fmt.Fprintf(w, `{"object":"list","has_more":true,"next_page":"%s/cards/search?q=e%%3Ablb&page=2","data":[{"id":"a","name":"First"}]}`, server.URL)
		case "2":
			_, _ = w.Write([]byte(`{"object":"list","has_more":false,"data":[{"id":"b","name":"Second"}]}`))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	page, err := client.SearchCards(ctx, "e:blb")
	if err != nil {
		t.Fatalf("SearchCards failed: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Name != "First" || !page.HasMore {
		t.Fatalf("Unexpected first page: %+v", page)
	}

	next, err := client.NextPage(ctx, page)
	if err != nil {
		t.Fatalf("NextPage failed: %v", err)
	}
	if len(next.Data) != 1 || next.Data[0].Name != "Second" {
		t.Fatalf("Unexpected second page: %+v", next)
	}

	last, err := client.NextPage(ctx, next)
	if err != nil || last != nil {
		t.Errorf("Expected nil page after the last one, got %+v, %v", last, err)
	}
}

func TestClient_NotFoundError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"object":"error","code":"not_found","status":404,"details":"No cards found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SearchCards(context.Background(), "e:zzz")

	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got: %T", err)
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++

		if attemptCount < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"object":"error","code":"rate_limit","status":429}`))
			return
		}

		_, _ = w.Write([]byte(`{"id":"test","name":"Test Card"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var card Card
	if err := client.doRequest(context.Background(), server.URL, &card); err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}

	if attemptCount != 2 {
		t.Errorf("Expected 2 attempts, got %d", attemptCount)
	}
	if card.Name != "Test Card" {
		t.Errorf("Expected card name 'Test Card', got '%s'", card.Name)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{invalid json}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var card Card
	err := client.doRequest(context.Background(), server.URL, &card)

	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !IsMalformed(err) {
		t.Errorf("Expected MalformedError, got %T", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var card Card
	if err := client.doRequest(ctx, server.URL, &card); err == nil {
		t.Fatal("Expected error from context cancellation, got nil")
	}
}

func TestClient_Headers(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{BaseURL: server.URL, UserAgent: "test-agent/2.0"})

	var card Card
	_ = client.doRequest(context.Background(), server.URL, &card)

	if userAgent != "test-agent/2.0" {
		t.Errorf("Expected User-Agent 'test-agent/2.0', got '%s'", userAgent)
	}
	if accept != "application/json" {
		t.Errorf("Expected Accept header 'application/json', got '%s'", accept)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"NotFoundError", &NotFoundError{URL: "test"}, true},
		{"wrapped NotFoundError", fmt.Errorf("search: %w", &NotFoundError{URL: "test"}), true},
		{"Other error", &APIError{Status: 500}, false},
		{"Nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsNotFound(tt.err); result != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", result, tt.expected)
			}
		})
	}
}
