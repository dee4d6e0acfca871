package shorten

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/julienschmidt/httprouter"

	"tinytrail/internal/pkg/apierr"
	"tinytrail/internal/platform/session"
	"tinytrail/internal/transport"
)

func newCoordinator(t *testing.T, router *httprouter.Router, credential string) (*Coordinator, *int32) {
	t.Helper()

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "credential"))
	if credential != "" {
		store.Login(credential)
	}
	dispatcher := transport.NewDispatcher(server.URL, 0, store)
	return NewCoordinator(dispatcher, store, "http://tiny.local"), &requests
}

func TestShortenRequiresCredential(t *testing.T) {
	coordinator, requests := newCoordinator(t, httprouter.New(), "")

	_, err := coordinator.Shorten(context.Background(), "https://example.com/very/long")
	if !errors.Is(err, apierr.ErrCredentialMissing) {
		t.Fatalf("Expected ErrCredentialMissing, got %v", err)
	}
	if atomic.LoadInt32(requests) != 0 {
		t.Errorf("Anonymous shorten must not dispatch, saw %d requests", *requests)
	}
}

func TestShortenComposesShortURL(t *testing.T) {
	router := httprouter.New()
	router.POST("/api/urls/shorten", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok_test" {
			t.Errorf("Expected bearer header, got %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"shortUrl": "abc123"}`))
	})

	coordinator, _ := newCoordinator(t, router, "tok_test")
	shortURL, err := coordinator.Shorten(context.Background(), "https://example.com/very/long")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if shortURL != "http://tiny.local/abc123" {
		t.Errorf("Expected http://tiny.local/abc123, got %s", shortURL)
	}
}

func TestShortenSurfacesServerMessage(t *testing.T) {
	router := httprouter.New()
	router.POST("/api/urls/shorten", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid URL"}`))
	})

	coordinator, _ := newCoordinator(t, router, "tok_test")
	_, err := coordinator.Shorten(context.Background(), "not a url")

	var serverErr *apierr.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("Expected *apierr.ServerError, got %T", err)
	}
	if serverErr.Message != "Invalid URL" {
		t.Errorf("Expected server message, got %q", serverErr.Message)
	}
}

func TestMyURLs(t *testing.T) {
	router := httprouter.New()
	router.GET("/api/urls/myurls", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "shortUrl": "abc123", "originalUrl": "https://example.com", "clickCount": 42, "createdDate": "2024-01-01T10:30:00", "username": "alice"}
		]`))
	})

	coordinator, _ := newCoordinator(t, router, "tok_test")
	mappings, err := coordinator.MyURLs(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("Expected 1 mapping, got %d", len(mappings))
	}
	if mappings[0].ShortURL != "abc123" || mappings[0].ClickCount != 42 || mappings[0].Username != "alice" {
		t.Errorf("Unexpected mapping: %+v", mappings[0])
	}
}

func TestMyURLsRequiresCredential(t *testing.T) {
	coordinator, requests := newCoordinator(t, httprouter.New(), "")

	_, err := coordinator.MyURLs(context.Background())
	if !errors.Is(err, apierr.ErrCredentialMissing) {
		t.Fatalf("Expected ErrCredentialMissing, got %v", err)
	}
	if atomic.LoadInt32(requests) != 0 {
		t.Errorf("Anonymous listing must not dispatch, saw %d requests", *requests)
	}
}

func TestCompose(t *testing.T) {
	coordinator, _ := newCoordinator(t, httprouter.New(), "tok_test")

	tests := []struct {
		suffix   string
		expected string
	}{
		{"abc123", "http://tiny.local/abc123"},
		{"/abc123", "http://tiny.local/abc123"},
		{"https://other.host/abc123", "https://other.host/abc123"},
	}
	for _, tt := range tests {
		if got := coordinator.Compose(tt.suffix); got != tt.expected {
			t.Errorf("Compose(%q): expected %s, got %s", tt.suffix, tt.expected, got)
		}
	}
}
