package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultNoEmbedURL = "https://noembed.com/embed"

// NoEmbed resolves video titles through the noembed oEmbed proxy.
type NoEmbed struct {
	BaseURL string
	Client  *http.Client
}

func NewNoEmbed() *NoEmbed {
	return &NoEmbed{BaseURL: DefaultNoEmbedURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *NoEmbed) Title(ctx context.Context, videoID string) (string, error) {
	q := url.Values{"url": {"https://www.youtube.com/watch?v=" + videoID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("noembed: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("noembed: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Title string `json:"title"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("noembed: decode failed: %w", err)
	}
	if body.Error != "" || strings.TrimSpace(body.Title) == "" {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, body.Error)
	}
	return strings.TrimSpace(body.Title), nil
}
