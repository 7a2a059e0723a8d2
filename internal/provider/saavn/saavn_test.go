package saavn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchDataShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "The Weeknd Blinding Lights" {
			t.Errorf("query = %q", got)
		}
		w.Write([]byte(`{
			"data": [
				{"title": "Blinding Lights", "singers": "The Weeknd", "album": "After Hours - Album", "year": 2020, "image_url": "https://img/bl.jpg"}
			]
		}`))
	}))
	defer server.Close()

	client := New()
	client.apiURL = server.URL

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
	if rec.Album != "After Hours" {
		t.Errorf("album = %q, want marketing suffix stripped", rec.Album)
	}
	if rec.Year != "2020" {
		t.Errorf("year = %q, want numeric year converted", rec.Year)
	}
	if rec.ArtworkURL != "https://img/bl.jpg" {
		t.Errorf("artwork = %q", rec.ArtworkURL)
	}
	if rec.Source != "JioSaavn" {
		t.Errorf("source = %q", rec.Source)
	}
	if rec.AlbumArtist != "The Weeknd" {
		t.Errorf("album artist = %q", rec.AlbumArtist)
	}
}

func TestSearchNestedSongsShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"songs": {
				"data": [
					{"song": "Blinding Lights", "primaryArtists": "The Weeknd", "albumName": "After Hours", "year": "2020"}
				]
			}
		}`))
	}))
	defer server.Close()

	client := New()
	client.apiURL = server.URL

	results, err := client.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Blinding Lights" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchSkipsUnusableItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{"somethingElse": true},
				{"name": "Blinding Lights", "artist": "The Weeknd"}
			]
		}`))
	}))
	defer server.Close()

	client := New()
	client.apiURL = server.URL

	results, err := client.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Blinding Lights" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchNoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := New()
	client.apiURL = server.URL

	results, err := client.Search(context.Background(), "x")
	if err != nil || results != nil {
		t.Errorf("want no results without error, got %v, %v", results, err)
	}
}

func TestSearchEmptyTerm(t *testing.T) {
	client := New()
	results, err := client.Search(context.Background(), "   ")
	if err != nil || results != nil {
		t.Errorf("empty term should short-circuit, got %v, %v", results, err)
	}
}
