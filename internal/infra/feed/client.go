// Package feed fetches live and upcoming broadcasts from the Holodex API.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vietddude/akashic/internal/core/domain"
)

// DefaultURL is the Holodex live endpoint.
const DefaultURL = "https://holodex.net/api/v2/live"

// Config holds feed source settings.
type Config struct {
	URL              string        `yaml:"url"`
	APIKey           string        `yaml:"api_key"`
	APIKeyFile       string        `yaml:"api_key_file"`
	Types            string        `yaml:"types"`
	MaxUpcomingHours int           `yaml:"max_upcoming_hours"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Client requests the live feed.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client whose request URL is fixed at construction.
func NewClient(cfg Config) (*Client, error) {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}

	types := cfg.Types
	if types == "" {
		types = "stream,placeholder"
	}
	hours := cfg.MaxUpcomingHours
	if hours <= 0 {
		hours = 168
	}
	q := u.Query()
	q.Set("type", types)
	q.Set("max_upcoming_hours", strconv.Itoa(hours))
	u.RawQuery = q.Encode()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: u.String(),
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type channelPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

type recordPayload struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Type            string         `json:"type"`
	Status          string         `json:"status"`
	PlaceholderType string         `json:"placeholderType"`
	Link            string         `json:"link"`
	StartScheduled  *time.Time     `json:"start_scheduled"`
	AvailableAt     *time.Time     `json:"available_at"`
	Channel         channelPayload `json:"channel"`
}

// Live fetches the current feed. Any transport failure, non-2xx status or
// malformed payload is returned as an error.
func (c *Client) Live(ctx context.Context) ([]domain.FeedRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-APIKEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var payload []recordPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	records := make([]domain.FeedRecord, 0, len(payload))
	for _, p := range payload {
		if p.ID == "" {
			continue
		}
		name := p.Channel.EnglishName
		if name == "" {
			name = p.Channel.Name
		}
		records = append(records, domain.FeedRecord{
			ID:              p.ID,
			ChannelID:       p.Channel.ID,
			ChannelName:     name,
			Title:           p.Title,
			Kind:            domain.RecordKind(p.Type),
			Status:          domain.RecordStatus(p.Status),
			PlaceholderType: domain.PlaceholderType(p.PlaceholderType),
			Link:            p.Link,
			StartScheduled:  p.StartScheduled,
			AvailableAt:     p.AvailableAt,
		})
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
