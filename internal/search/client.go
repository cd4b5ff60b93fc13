// Package search queries a SearXNG-compatible web search backend.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/models"
	"github.com/rs/zerolog"
)

const maxResponseBytes = 2 << 20

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Engine  string  `json:"engine"`
	Score   float64 `json:"score"`
}

// Client implements the web search adapter
type Client struct {
	httpClient *http.Client
	cfg        config.SearchConfig
	log        zerolog.Logger
}

// New creates a Client for cfg.BaseURL
func New(cfg config.SearchConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		log:        log.With().Str("adapter", "search").Logger(),
	}
}

// Search runs query and returns at most max results in backend order.
// Results without a usable http(s) URL are dropped.
func (c *Client) Search(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || max <= 0 {
		return nil, &common.SearchError{Query: query, Err: common.ErrInvalidInput}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("safesearch", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, &common.SearchError{Query: query, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.SearchError{Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &common.SearchError{Query: query, Err: common.ErrQuotaExceeded}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &common.SearchError{Query: query, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var out searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, &common.SearchError{Query: query, Err: fmt.Errorf("malformed response: %w", err)}
	}

	results := make([]models.SearchResult, 0, max)
	for _, r := range out.Results {
		if len(results) == max {
			break
		}
		if !isWebURL(r.URL) {
			continue
		}
		results = append(results, models.SearchResult{
			Title: strings.TrimSpace(r.Title),
			URL:   strings.TrimSpace(r.URL),
		})
	}

	c.log.Debug().Str("query", query).Int("returned", len(out.Results)).Int("kept", len(results)).Msg("Search completed")
	return results, nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
