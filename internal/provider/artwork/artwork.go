package artwork

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxArtworkBytes caps cover downloads; anything larger is not a cover.
const maxArtworkBytes = 10 << 20

// Fetcher downloads cover images over HTTP. Implements
// metadata.ArtworkFetcher.
type Fetcher struct {
	httpClient *http.Client
}

// New creates an artwork fetcher.
func New() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Get downloads the image at url and returns its bytes.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("empty artwork URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork request: %w", err)
	}
	req.Header.Set("User-Agent", "ytgrab/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork data: %w", err)
	}
	if len(data) > maxArtworkBytes {
		return nil, fmt.Errorf("artwork larger than %d bytes", maxArtworkBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artwork download was empty")
	}

	return data, nil
}
