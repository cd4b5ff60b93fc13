// Package assist talks to an LLM text generation backend that speaks the
// Ollama-style /api/generate protocol.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Operation names, carried in AIError.Op and used as metric labels
const (
	OpSummarize    = "summarize"
	OpQuery        = "synthesize_query"
	OpJustify      = "justify"
	OpSuggestTitle = "suggest_title"
)

const maxResponseBytes = 1 << 20

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64  `json:"temperature"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Client implements the AI assist operations. Calls are rate limited on
// the client side so a busy page cannot exhaust the backend quota.
type Client struct {
	httpClient *http.Client
	cfg        config.AIConfig
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// New creates a Client for cfg.BaseURL
func New(cfg config.AIConfig, log zerolog.Logger) *Client {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, burst),
		log:        log.With().Str("adapter", "assist").Str("model", cfg.Model).Logger(),
	}
}

// Summarize writes a short digest of the given article titles
func (c *Client) Summarize(ctx context.Context, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", &common.AIError{Op: OpSummarize, Err: fmt.Errorf("no titles: %w", common.ErrInvalidInput)}
	}

	var b strings.Builder
	b.WriteString("You are a reading assistant. These are the titles of articles a user saved to read later.\n")
	b.WriteString("Write a digest of at most three sentences describing the main themes, in the language of the titles.\n")
	b.WriteString("Plain text only, no headings, no lists.\n\nTitles:\n")
	for _, t := range titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}

	return c.generate(ctx, OpSummarize, b.String(), generateOptions{Temperature: 0.3, NumPredict: 300})
}

// SynthesizeQuery turns a preference description and an optional hint
// (URLs or keywords typed by the user) into one web search query
func (c *Client) SynthesizeQuery(ctx context.Context, preference, hint string) (string, error) {
	var b strings.Builder
	b.WriteString("Create exactly one web search query that finds new articles this reader would enjoy.\n")
	b.WriteString("Reply with the query only, on a single line, without quotes.\n\n")
	b.WriteString("Recently saved articles:\n")
	b.WriteString(preference)
	b.WriteString("\n")
	if hint = strings.TrimSpace(hint); hint != "" {
		b.WriteString("\nThe reader also gave these URLs or keywords as a hint:\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}

	out, err := c.generate(ctx, OpQuery, b.String(), generateOptions{Temperature: 0.7, NumPredict: 40, Stop: []string{"\n\n"}})
	if err != nil {
		return "", err
	}
	query := singleLine(out)
	if query == "" {
		return "", &common.AIError{Op: OpQuery, Err: common.ErrEmptyResponse}
	}
	return query, nil
}

// Justify returns a one-line reason to read an article with the given title
func (c *Client) Justify(ctx context.Context, title string) (string, error) {
	max := c.cfg.JustifyMaxRune
	if max <= 0 {
		max = 40
	}
	prompt := fmt.Sprintf(
		"In one short line of at most %d characters, say why this article is worth reading. "+
			"Reply in the language of the title, without quotes.\n\nTitle: %s\n", max, title)

	out, err := c.generate(ctx, OpJustify, prompt, generateOptions{Temperature: 0.5, NumPredict: 60, Stop: []string{"\n"}})
	if err != nil {
		return "", err
	}
	reason := truncateRunes(singleLine(out), max)
	if reason == "" {
		return "", &common.AIError{Op: OpJustify, Err: common.ErrEmptyResponse}
	}
	return reason, nil
}

// SuggestTitle proposes a display title for a URL when no extractor runs
func (c *Client) SuggestTitle(ctx context.Context, pageURL string) (string, error) {
	prompt := "Suggest a concise title for the web page at the URL below. " +
		"Reply with the title only, on a single line, without quotes.\n\nURL: " + pageURL + "\n"

	out, err := c.generate(ctx, OpSuggestTitle, prompt, generateOptions{Temperature: 0.2, NumPredict: 40, Stop: []string{"\n"}})
	if err != nil {
		return "", err
	}
	title := singleLine(out)
	if title == "" {
		return "", &common.AIError{Op: OpSuggestTitle, Err: common.ErrEmptyResponse}
	}
	return title, nil
}

func (c *Client) generate(ctx context.Context, op, prompt string, opts generateOptions) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &common.AIError{Op: op, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	payload, err := json.Marshal(generateRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return "", &common.AIError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &common.AIError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &common.AIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &common.AIError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &common.AIError{Op: op, Err: common.ErrQuotaExceeded}
	case resp.StatusCode != http.StatusOK:
		return "", &common.AIError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateRunes(string(body), 200))}
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &common.AIError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if out.Error != "" {
		return "", &common.AIError{Op: op, Err: errors.New(out.Error)}
	}
	if !out.Done {
		return "", &common.AIError{Op: op, Err: errors.New("response not completed")}
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", &common.AIError{Op: op, Err: common.ErrEmptyResponse}
	}

	c.log.Debug().Str("op", op).Int("response_len", len(text)).Msg("Generation completed")
	return text, nil
}

// singleLine keeps the first non-empty line and strips wrapping quotes
func singleLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.Trim(line, "\"'`「」“”"))
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
