package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func tokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		w.Write([]byte(`{"access_token": "tok123", "token_type": "Bearer", "expires_in": 3600}`))
	}
}

func TestSearch(t *testing.T) {
	tokenServer := httptest.NewServer(tokenHandler(t))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("auth header = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "The Weeknd Blinding Lights" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`{
			"tracks": {
				"items": [
					{
						"name": "Blinding Lights",
						"artists": [{"id": "a1", "name": "The Weeknd"}],
						"album": {
							"name": "After Hours",
							"artists": [{"id": "a1", "name": "The Weeknd"}],
							"release_date": "2020-03-20",
							"total_tracks": 14,
							"images": [{"url": "https://img/big.jpg", "width": 640, "height": 640}]
						},
						"track_number": 4,
						"disc_number": 1,
						"external_ids": {"isrc": "USUG11904206"}
					}
				]
			}
		}`))
	}))
	defer apiServer.Close()

	client := New("id", "secret")
	client.tokenURL = tokenServer.URL
	client.apiURL = apiServer.URL

	results, err := client.Search(context.Background(), "The Weeknd Blinding Lights")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	rec := results[0]
	if rec.Title != "Blinding Lights" || rec.Artist != "The Weeknd" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Album != "After Hours" || rec.Year != "2020" {
		t.Errorf("album/year = %q/%q", rec.Album, rec.Year)
	}
	if rec.ISRC != "USUG11904206" {
		t.Errorf("isrc = %q", rec.ISRC)
	}
	if rec.TrackNumber != "4" || rec.TrackTotal != "14" {
		t.Errorf("track = %q/%q", rec.TrackNumber, rec.TrackTotal)
	}
	if rec.ArtworkURL != "https://img/big.jpg" {
		t.Errorf("artwork = %q", rec.ArtworkURL)
	}
	if rec.Source != "Spotify" {
		t.Errorf("source = %q", rec.Source)
	}
}

func TestTokenReuse(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Write([]byte(`{"access_token": "tok123", "expires_in": 3600}`))
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks": {"items": []}}`))
	}))
	defer apiServer.Close()

	client := New("id", "secret")
	client.tokenURL = tokenServer.URL
	client.apiURL = apiServer.URL

	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "x"); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}
}

func TestRetryOn429(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token": "tok123", "expires_in": 3600}`))
	}))
	defer tokenServer.Close()

	var calls atomic.Int32
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"tracks": {"items": []}}`))
	}))
	defer apiServer.Close()

	client := New("id", "secret")
	client.tokenURL = tokenServer.URL
	client.apiURL = apiServer.URL

	if _, err := client.Search(context.Background(), "x"); err != nil {
		t.Fatalf("Search after 429: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("api hit %d times, want retry to make it 2", calls.Load())
	}
}

func TestSearchEmptyTerm(t *testing.T) {
	client := New("id", "secret")
	results, err := client.Search(context.Background(), "  ")
	if err != nil || results != nil {
		t.Errorf("empty term should short-circuit, got %v, %v", results, err)
	}
}
