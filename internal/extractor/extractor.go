// Package extractor fetches a web page and pulls out its title, lead image
// and readable text.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/models"
	"github.com/rs/zerolog"
)

var (
	titleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	}
	imageSelectors = []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	}
)

// Extractor is the HTTP + readability implementation of the content extractor
type Extractor struct {
	client *http.Client
	cfg    config.ExtractorConfig
	strict *bluemonday.Policy
	log    zerolog.Logger
}

// New creates an Extractor. The client timeout bounds the whole fetch,
// including redirects and body read.
func New(cfg config.ExtractorConfig, log zerolog.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		strict: bluemonday.StrictPolicy(),
		log:    log.With().Str("adapter", "extractor").Logger(),
	}
}

// Extract downloads rawURL and parses it. Every failure is an
// *common.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*models.ExtractedPage, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &common.ExtractionError{URL: rawURL, Err: err}
	}
	if (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		return nil, &common.ExtractionError{URL: rawURL, Err: fmt.Errorf("unsupported url: %w", common.ErrInvalidInput)}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, &common.ExtractionError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if e.cfg.Language != "" {
		req.Header.Set("Accept-Language", e.cfg.Language)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &common.ExtractionError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &common.ExtractionError{URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return nil, &common.ExtractionError{URL: rawURL, Err: fmt.Errorf("unsupported content type %q", ct)}
	}

	limit := e.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &common.ExtractionError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	// Redirects may have moved us; relative image URLs resolve against the final page
	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	page, err := e.Parse(body, finalURL)
	if err != nil {
		return nil, &common.ExtractionError{URL: rawURL, Err: err}
	}

	e.log.Debug().
		Str("url", rawURL).
		Str("title", page.Title).
		Bool("has_image", page.TopImage != "").
		Int("text_len", len(page.Text)).
		Dur("duration", time.Since(start)).
		Msg("Page extracted")

	return page, nil
}

// Parse extracts metadata from an HTML document. readability supplies the
// primary values; document meta tags fill whatever it leaves empty.
func (e *Extractor) Parse(body []byte, pageURL *url.URL) (*models.ExtractedPage, error) {
	page := &models.ExtractedPage{}

	article, readErr := readability.FromReader(bytes.NewReader(body), pageURL)
	if readErr == nil {
		page.Title = article.Title
		page.TopImage = article.Image
		page.Text = article.TextContent
	}

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr == nil {
		if strings.TrimSpace(page.Title) == "" {
			page.Title = firstMeta(doc, titleSelectors)
		}
		if strings.TrimSpace(page.Title) == "" {
			page.Title = doc.Find("title").First().Text()
		}
		if strings.TrimSpace(page.TopImage) == "" {
			page.TopImage = firstMeta(doc, imageSelectors)
		}
	}

	if readErr != nil && docErr != nil {
		return nil, fmt.Errorf("parse document: %w", readErr)
	}

	page.Title = e.cleanText(page.Title)
	page.Text = e.cleanText(page.Text)
	page.TopImage = resolve(pageURL, strings.TrimSpace(page.TopImage))

	return page, nil
}

// cleanText drops any markup left in a value and collapses whitespace
func (e *Extractor) cleanText(s string) string {
	s = html.UnescapeString(e.strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func firstMeta(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
