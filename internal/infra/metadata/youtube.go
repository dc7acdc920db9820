// Package metadata looks up authoritative live status for a video.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
)

// DefaultYouTubeURL is the YouTube Data API v3 videos endpoint.
const DefaultYouTubeURL = "https://www.googleapis.com/youtube/v3/videos"

// ErrNotFound is returned when the video does not exist or was removed.
var ErrNotFound = errors.New("video not found")

// LiveStatus is the reconciled broadcast state.
type LiveStatus string

const (
	StatusLive     LiveStatus = "live"
	StatusEnded    LiveStatus = "ended"
	StatusUpcoming LiveStatus = "upcoming"
)

// Source resolves the live status of a video id.
type Source interface {
	LiveStatus(ctx context.Context, videoID string) (LiveStatus, error)
}

// YouTubeClient queries the YouTube Data API.
type YouTubeClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewYouTubeClient creates a client. An empty endpoint uses DefaultYouTubeURL.
func NewYouTubeClient(endpoint, apiKey string, timeout time.Duration) *YouTubeClient {
	if endpoint == "" {
		endpoint = DefaultYouTubeURL
	}
	return &YouTubeClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title                string `json:"title"`
			LiveBroadcastContent string `json:"liveBroadcastContent"`
		} `json:"snippet"`
	} `json:"items"`
}

// LiveStatus returns live, ended or upcoming for videoID.
func (c *YouTubeClient) LiveStatus(ctx context.Context, videoID string) (LiveStatus, error) {
	if !domain.IsVideoID(videoID) {
		return "", fmt.Errorf("invalid video id %q", videoID)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("part", "snippet")
	q.Set("id", videoID)
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("videos lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var list videoListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(list.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	switch content := list.Items[0].Snippet.LiveBroadcastContent; content {
	case "live":
		return StatusLive, nil
	case "none":
		return StatusEnded, nil
	case "upcoming":
		return StatusUpcoming, nil
	default:
		return "", fmt.Errorf("unexpected liveBroadcastContent %q", content)
	}
}
