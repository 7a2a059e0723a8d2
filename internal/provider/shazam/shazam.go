package shazam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytgrab/internal/fingerprint"
)

// Client submits audio samples to a Shazam recognition endpoint and
// extracts the identified track. Implements fingerprint.Recognizer.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

// New creates a Shazam client. apiKey may be empty when the endpoint
// does not require one.
func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     "https://shazam-api.p.rapidapi.com/songs/detect",
		apiKey:     apiKey,
	}
}

func (c *Client) Name() string { return "shazam" }

// Recognize submits one sample and returns the recognized track.
// An empty Recognition with nil error means the service found nothing.
func (c *Client) Recognize(ctx context.Context, sample []byte) (fingerprint.Recognition, error) {
	if len(sample) == 0 {
		return fingerprint.Recognition{}, fmt.Errorf("empty audio sample")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(sample))
	if err != nil {
		return fingerprint.Recognition{}, fmt.Errorf("failed to create recognition request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fingerprint.Recognition{}, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fingerprint.Recognition{}, fmt.Errorf("recognition returned %d: %s", resp.StatusCode, body)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fingerprint.Recognition{}, fmt.Errorf("failed to decode recognition response: %w", err)
	}

	return extractFields(payload), nil
}

// extractFields pulls title, artist and the recording code out of a
// recognition payload. The track object may sit under "track" or be the
// payload itself; the recording code hides in the sections metadata.
func extractFields(payload map[string]interface{}) fingerprint.Recognition {
	track, ok := payload["track"].(map[string]interface{})
	if !ok {
		if _, has := payload["title"]; has {
			track = payload
		} else {
			return fingerprint.Recognition{}
		}
	}

	rec := fingerprint.Recognition{
		Title:  trimString(track["title"]),
		Artist: trimString(track["subtitle"]),
	}

	sections, _ := track["sections"].([]interface{})
	for _, s := range sections {
		sec, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		meta, _ := sec["metadata"].([]interface{})
		for _, m := range meta {
			entry, ok := m.(map[string]interface{})
			if !ok {
				continue
			}
			if strings.EqualFold(trimString(entry["title"]), "isrc") {
				rec.ISRC = trimString(entry["text"])
				break
			}
		}
		if rec.ISRC != "" {
			break
		}
	}

	return rec
}

func trimString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
