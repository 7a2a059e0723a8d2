package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"ytgrab/internal/metadata"
)

var artworkSizeRE = regexp.MustCompile(`(?i)/\d+x\d+bb\.(jpg|png)$`)

// Client is an iTunes Search API client that implements metadata.Catalog.
type Client struct {
	httpClient  *http.Client
	searchURL   string
	lookupURL   string
	cooldown    time.Duration
	mu          sync.Mutex
	lastRequest time.Time
}

// New creates an iTunes client. The cooldown spaces consecutive requests
// as a politeness measure against the unauthenticated API.
func New(cooldown time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 25 * time.Second},
		searchURL:  "https://itunes.apple.com/search",
		lookupURL:  "https://itunes.apple.com/lookup",
		cooldown:   cooldown,
	}
}

func (c *Client) Name() string { return "itunes" }

// Search queries the iTunes Search API for songs matching term.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]metadata.TrackRecord, error) {
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 12
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s?%s", c.searchURL, params.Encode()), &resp); err != nil {
		return nil, fmt.Errorf("itunes search failed: %w", err)
	}

	var out []metadata.TrackRecord
	for _, item := range resp.Results {
		out = append(out, recordFromItem(item))
	}
	return out, nil
}

// Lookup fetches one track by its iTunes track identifier.
func (c *Client) Lookup(ctx context.Context, id string) (metadata.TrackRecord, error) {
	if id == "" {
		return metadata.TrackRecord{}, nil
	}

	params := url.Values{}
	params.Set("id", id)

	var resp searchResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s?%s", c.lookupURL, params.Encode()), &resp); err != nil {
		return metadata.TrackRecord{}, fmt.Errorf("itunes lookup failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return metadata.TrackRecord{}, nil
	}
	return recordFromItem(resp.Results[0]), nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, v interface{}) error {
	c.rateLimit()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ytgrab/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("itunes returned %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// rateLimit spaces requests by the configured cooldown.
func (c *Client) rateLimit() {
	if c.cooldown <= 0 {
		return
	}

	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	c.mu.Unlock()

	if elapsed < c.cooldown {
		time.Sleep(c.cooldown - elapsed)
	}

	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func recordFromItem(item resultItem) metadata.TrackRecord {
	rec := metadata.TrackRecord{
		Title:       item.TrackName,
		Artist:      item.ArtistName,
		AlbumArtist: item.ArtistName,
		Album:       item.CollectionName,
		Genre:       item.PrimaryGenreName,
		Kind:        item.Kind,
		ArtworkURL:  upgradeArtworkURL(item.ArtworkURL100),
		Source:      metadata.SourceITunes,
	}

	if len(item.ReleaseDate) >= 4 {
		if _, err := strconv.Atoi(item.ReleaseDate[:4]); err == nil {
			rec.Year = item.ReleaseDate[:4]
		}
	}
	if item.TrackNumber > 0 {
		rec.TrackNumber = strconv.Itoa(item.TrackNumber)
	}
	if item.TrackCount > 0 {
		rec.TrackTotal = strconv.Itoa(item.TrackCount)
	}
	if item.DiscNumber > 0 {
		rec.DiscNumber = strconv.Itoa(item.DiscNumber)
	}
	if item.DiscCount > 0 {
		rec.DiscTotal = strconv.Itoa(item.DiscCount)
	}
	if item.TrackID > 0 {
		rec.CatalogID = strconv.FormatInt(item.TrackID, 10)
	}
	return rec
}

// upgradeArtworkURL requests the large rendition of the cover image.
func upgradeArtworkURL(artworkURL string) string {
	if artworkURL == "" {
		return ""
	}
	return artworkSizeRE.ReplaceAllString(artworkURL, "/1200x1200bb.jpg")
}

// iTunes Search API response types

type searchResponse struct {
	ResultCount int          `json:"resultCount"`
	Results     []resultItem `json:"results"`
}

type resultItem struct {
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	Kind             string `json:"kind"`
	TrackNumber      int    `json:"trackNumber"`
	TrackCount       int    `json:"trackCount"`
	DiscNumber       int    `json:"discNumber"`
	DiscCount        int    `json:"discCount"`
	ArtworkURL100    string `json:"artworkUrl100"`
	ReleaseDate      string `json:"releaseDate"`
}
