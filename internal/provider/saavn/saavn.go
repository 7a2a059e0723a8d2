package saavn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ytgrab/internal/metadata"
)

// Client queries the unofficial JioSaavn search API. The endpoint's
// result shape varies between deployments, so decoding is tolerant:
// items may live under "data", "results", or "songs.data", and field
// names differ per variant. Implements metadata.Searcher.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a JioSaavn client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 25 * time.Second},
		apiURL:     "https://saavnapi-nine.vercel.app/result/",
	}
}

func (c *Client) Name() string { return "jiosaavn" }

// Search returns the first usable song among the top results.
func (c *Client) Search(ctx context.Context, term string) ([]metadata.TrackRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", term)
	params.Set("lyrics", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.apiURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create saavn request: %w", err)
	}
	req.Header.Set("User-Agent", "ytgrab/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("saavn request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("saavn returned %d: %s", resp.StatusCode, body)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode saavn response: %w", err)
	}

	items := extractItems(payload)
	if len(items) > 10 {
		items = items[:10]
	}

	for _, item := range items {
		rec := recordFromItem(item)
		if rec.Title != "" || rec.Artist != "" {
			return []metadata.TrackRecord{rec}, nil
		}
	}
	return nil, nil
}

func extractItems(payload map[string]interface{}) []map[string]interface{} {
	if items := asItemList(payload["data"]); items != nil {
		return items
	}
	if items := asItemList(payload["results"]); items != nil {
		return items
	}
	if songs, ok := payload["songs"].(map[string]interface{}); ok {
		return asItemList(songs["data"])
	}
	return nil
}

func asItemList(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, it := range list {
		if m, ok := it.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func recordFromItem(item map[string]interface{}) metadata.TrackRecord {
	rec := metadata.TrackRecord{
		Title:      stringField(item, "title", "song", "name"),
		Artist:     stringField(item, "singers", "primaryArtists", "artist"),
		Album:      stringField(item, "album", "albumName"),
		Year:       stringField(item, "year"),
		ArtworkURL: stringField(item, "image_url", "image", "imageUrl"),
		Source:     metadata.SourceSaavn,
	}
	rec.Album = metadata.CleanAlbumName(rec.Album)
	rec.AlbumArtist = rec.Artist
	return rec
}

// stringField returns the first non-empty value among keys, converting
// numeric values (the API serves year both ways) to strings.
func stringField(item map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.Itoa(int(v))
		}
	}
	return ""
}
