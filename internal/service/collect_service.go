package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/read-it-later/internal/assist"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/repository"
	"github.com/rs/zerolog"
)

// collectService is the concrete implementation of CollectService
type collectService struct {
	repo      repository.ArticleRepository
	assistant Assistant
	searcher  Searcher
	cfg       config.CollectConfig
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func newCollectService(repo repository.ArticleRepository, adapters Adapters, cfg config.CollectConfig, m *metrics.Metrics, log zerolog.Logger) *collectService {
	return &collectService{
		repo:      repo,
		assistant: adapters.Assistant,
		searcher:  adapters.Searcher,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("service", "collect").Logger(),
	}
}

// Enabled reports whether both the AI and the search backend are configured
func (s *collectService) Enabled() bool {
	return s.assistant != nil && s.searcher != nil
}

// Collect searches the web for articles matching the reading history and
// saves them. Query synthesis and search failures abort the run; a failed
// justification falls back to the placeholder reason. The batch is
// inserted atomically.
func (s *collectService) Collect(ctx context.Context, req models.CollectRequest) ([]*models.Article, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("ai collect: %w", common.ErrUnavailable)
	}
	if req.Count < 0 {
		return nil, fmt.Errorf("count %d: %w", req.Count, common.ErrInvalidInput)
	}

	count := s.clampCount(req.Count)
	log := s.log.With().Str("batch_id", uuid.NewString()).Int("count", count).Logger()

	preference := s.preference(ctx, log)

	query, err := s.assistant.SynthesizeQuery(ctx, preference, req.Hint)
	s.metrics.ObserveAICall(assist.OpQuery, err)
	if err != nil {
		log.Warn().Err(err).Msg("Query synthesis failed")
		return nil, fmt.Errorf("synthesize query: %w", err)
	}

	results, err := s.searcher.Search(ctx, query, count)
	s.metrics.ObserveAICall(opSearch, err)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("Search failed")
		return nil, fmt.Errorf("search: %w", err)
	}

	articles := make([]*models.Article, 0, count)
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if len(articles) == count {
			break
		}
		url := strings.TrimSpace(r.URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true

		if s.cfg.SkipSaved && s.alreadySaved(ctx, log, url) {
			continue
		}

		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = url
		}
		articles = append(articles, &models.Article{
			URL:      url,
			Title:    title,
			AIReason: s.justify(ctx, log, title),
		})
	}

	if len(articles) == 0 {
		log.Info().Str("query", query).Int("results", len(results)).Msg("Nothing new to collect")
		return articles, nil
	}

	inserted, err := s.repo.CreateBatch(ctx, articles)
	if err != nil {
		log.Error().Err(err).Int("batch_size", len(articles)).Msg("Batch insert failed")
		return nil, err
	}

	s.metrics.ObserveCollected(inserted)
	log.Info().Str("query", query).Int("inserted", inserted).Msg("AI collect completed")
	return articles, nil
}

func (s *collectService) clampCount(n int) int {
	if n == 0 {
		n = s.cfg.DefaultCount
	}
	if n < 1 {
		n = 1
	}
	if s.cfg.MaxCount > 0 && n > s.cfg.MaxCount {
		n = s.cfg.MaxCount
	}
	return n
}

// preference lists the most recent titles, or the default phrase when
// there are none or the store cannot be read
func (s *collectService) preference(ctx context.Context, log zerolog.Logger) string {
	titles, err := s.repo.RecentTitles(ctx, s.cfg.PreferenceWindow)
	if err != nil {
		log.Warn().Err(err).Msg("Recent titles unavailable, using default preference")
	}
	if len(titles) == 0 {
		return s.cfg.DefaultPreference
	}

	var b strings.Builder
	for _, t := range titles {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *collectService) alreadySaved(ctx context.Context, log zerolog.Logger, url string) bool {
	exists, err := s.repo.URLExists(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Duplicate check failed")
		return false
	}
	return exists
}

func (s *collectService) justify(ctx context.Context, log zerolog.Logger, title string) string {
	reason, err := s.assistant.Justify(ctx, title)
	s.metrics.ObserveAICall(assist.OpJustify, err)
	if err != nil || strings.TrimSpace(reason) == "" {
		log.Warn().Err(err).Str("title", title).Msg("Justification failed, using placeholder")
		return s.cfg.ReasonPlaceholder
	}
	return strings.TrimSpace(reason)
}
