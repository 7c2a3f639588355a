package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kelarin/rosync/internal/shared"
)

func TestSheetFeedFetch(t *testing.T) {
	t.Run("returns body and busts cache", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte("id,name\n1,Asep\n"))
		}))
		defer server.Close()

		feed := NewSheetFeed(server.URL+"/roster.csv", true, server.Client())

		body, err := feed.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if string(body) != "id,name\n1,Asep\n" {
			t.Errorf("Fetch() body = %q", body)
		}
		if gotQuery == "" {
			t.Error("expected cache-busting query parameter")
		}
	})

	t.Run("appends to existing query", func(t *testing.T) {
		var gotURL string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotURL = r.URL.String()
			w.Write([]byte("data"))
		}))
		defer server.Close()

		feed := NewSheetFeed(server.URL+"/pub?output=csv", true, server.Client())
		if _, err := feed.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		if gotURL == "" || gotURL == "/pub?output=csv" {
			t.Errorf("expected cache-bust appended with &, got %q", gotURL)
		}
	})

	t.Run("non-2xx is a feed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		feed := NewSheetFeed(server.URL, false, server.Client())

		_, err := feed.Fetch(context.Background())
		if !errors.Is(err, shared.ErrFeedUnavailable) {
			t.Errorf("Fetch() error = %v, want ErrFeedUnavailable", err)
		}
	})

	t.Run("empty body is a feed error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("   \n"))
		}))
		defer server.Close()

		feed := NewSheetFeed(server.URL, false, server.Client())

		_, err := feed.Fetch(context.Background())
		if !errors.Is(err, shared.ErrEmptyFeed) {
			t.Errorf("Fetch() error = %v, want ErrEmptyFeed", err)
		}
	})

	t.Run("no cache bust leaves URL untouched", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte("data"))
		}))
		defer server.Close()

		feed := NewSheetFeed(server.URL, false, server.Client())
		if _, err := feed.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if gotQuery != "" {
			t.Errorf("expected no query parameters, got %q", gotQuery)
		}
	})
}
