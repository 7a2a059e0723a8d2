package songlink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

var (
	pathIDRE  = regexp.MustCompile(`/id(\d+)`)
	queryIDRE = regexp.MustCompile(`[?&]i=(\d+)`)
)

// Client resolves a source URL into an iTunes track identifier through
// the song.link cross-platform API. Implements metadata.LinkResolver.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a song.link client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 25 * time.Second},
		apiURL:     "https://api.song.link/v1-alpha.1/links",
	}
}

// Resolve returns the best-effort iTunes track id for sourceURL, or ""
// when the payload names no Apple platform entry.
func (c *Client) Resolve(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("url", sourceURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", c.apiURL, params.Encode()), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create song.link request: %w", err)
	}
	req.Header.Set("User-Agent", "ytgrab/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("song.link request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("song.link returned %d: %s", resp.StatusCode, body)
	}

	var payload linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode song.link response: %w", err)
	}

	return extractTrackID(payload), nil
}

// extractTrackID scans the Apple platform URLs for a numeric track id,
// either as a "/id123" path segment or an "?i=123" query parameter.
func extractTrackID(payload linksResponse) string {
	var candidates []string
	for _, key := range []string{"appleMusic", "itunes"} {
		if link, ok := payload.LinksByPlatform[key]; ok && link.URL != "" {
			candidates = append(candidates, link.URL)
		}
	}
	for _, ent := range payload.EntitiesByUniqueID {
		if (ent.Platform == "appleMusic" || ent.Platform == "itunes") && ent.URL != "" {
			candidates = append(candidates, ent.URL)
		}
	}

	for _, u := range candidates {
		if m := pathIDRE.FindStringSubmatch(u); m != nil {
			return m[1]
		}
		if m := queryIDRE.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}
	return ""
}

// song.link API response types

type linksResponse struct {
	LinksByPlatform    map[string]platformLink `json:"linksByPlatform"`
	EntitiesByUniqueID map[string]entity       `json:"entitiesByUniqueId"`
}

type platformLink struct {
	URL string `json:"url"`
}

type entity struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}
