package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/read-it-later/internal/assist"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/repository"
	"github.com/rs/zerolog"
)

const opSearch = "search"

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo      repository.ArticleRepository
	extractor Extractor
	assistant Assistant
	cfg       *config.Config
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func newArticleService(repo repository.ArticleRepository, adapters Adapters, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *articleService {
	return &articleService{
		repo:      repo,
		extractor: adapters.Extractor,
		assistant: adapters.Assistant,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("service", "article").Logger(),
	}
}

// Save persists rawURL. The enriched record is tried first; when anything on
// that path fails a URL-only record is inserted instead. Only when that
// insert fails too is an error returned, always a *common.SaveError.
func (s *articleService) Save(ctx context.Context, rawURL string) (*models.SaveResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("url is required: %w", common.ErrInvalidInput)
	}

	// Inserts outlive the client: a bookmarklet tab may close mid-extraction.
	// The repository still bounds each insert with its own timeout.
	persistCtx := context.WithoutCancel(ctx)

	article, cause := s.enrich(ctx, rawURL)
	if cause == nil {
		if cause = s.repo.Create(persistCtx, article); cause == nil {
			s.metrics.ObserveSave(metrics.OutcomeExtracted)
			s.log.Info().Int64("id", article.ID).Str("url", rawURL).Msg("Article saved")
			return &models.SaveResult{Article: article}, nil
		}
	}

	s.log.Warn().Err(cause).Str("url", rawURL).Msg("Enriched save failed, saving URL only")

	minimal := &models.Article{URL: rawURL, Title: rawURL}
	if err := s.repo.Create(persistCtx, minimal); err != nil {
		s.metrics.ObserveSave(metrics.OutcomeFailed)
		s.log.Error().Err(err).AnErr("cause", cause).Str("url", rawURL).Msg("Fallback save failed")
		return nil, &common.SaveError{URL: rawURL, Cause: cause, Err: err}
	}

	s.metrics.ObserveSave(metrics.OutcomeFallback)
	s.log.Info().Int64("id", minimal.ID).Str("url", rawURL).Msg("Article saved without metadata")
	return &models.SaveResult{Article: minimal, Degraded: true}, nil
}

// enrich builds the record for rawURL from the extractor, or from an AI
// suggested title when no extractor is configured
func (s *articleService) enrich(ctx context.Context, rawURL string) (*models.Article, error) {
	article := &models.Article{URL: rawURL, Title: rawURL}

	switch {
	case s.extractor != nil:
		start := time.Now()
		page, err := s.extract(ctx, rawURL)
		s.metrics.ObserveExtraction(time.Since(start))
		if err != nil {
			return nil, err
		}
		if title := strings.TrimSpace(page.Title); title != "" {
			article.Title = title
		}
		article.ImageURL = strings.TrimSpace(page.TopImage)
		article.Summary = excerpt(page.Text, s.cfg.Extractor.SummaryLength)

	case s.assistant != nil:
		title, err := s.assistant.SuggestTitle(ctx, rawURL)
		s.metrics.ObserveAICall(assist.OpSuggestTitle, err)
		if err != nil {
			return nil, err
		}
		if title = strings.TrimSpace(title); title != "" {
			article.Title = title
		}
	}

	return article, nil
}

// extract turns a panicking extractor into an ExtractionError
func (s *articleService) extract(ctx context.Context, rawURL string) (page *models.ExtractedPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			page, err = nil, &common.ExtractionError{URL: rawURL, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	page, err = s.extractor.Extract(ctx, rawURL)
	if err == nil && page == nil {
		err = &common.ExtractionError{URL: rawURL, Err: common.ErrEmptyResponse}
	}
	return page, err
}

func (s *articleService) List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error) {
	return s.repo.List(ctx, filter)
}

func (s *articleService) Archive(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, true)
}

func (s *articleService) Unarchive(ctx context.Context, id int64) error {
	return s.setArchived(ctx, id, false)
}

func (s *articleService) setArchived(ctx context.Context, id int64, archived bool) error {
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, common.ErrInvalidInput)
	}
	if err := s.repo.SetArchived(ctx, id, archived); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Bool("archived", archived).Msg("Archive flag updated")
	return nil
}

func (s *articleService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, common.ErrInvalidInput)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("id", id).Msg("Article deleted")
	return nil
}

// Digest is best-effort: any failure yields an empty digest. The call is
// bounded by AI.DigestTimeout so a slow model cannot stall the list page.
func (s *articleService) Digest(ctx context.Context, articles []*models.Article) string {
	if s.assistant == nil || !s.cfg.AI.SummaryEnabled || len(articles) == 0 {
		return ""
	}

	if s.cfg.AI.DigestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AI.DigestTimeout)
		defer cancel()
	}

	limit := s.cfg.AI.SummaryTitles
	if limit <= 0 || limit > len(articles) {
		limit = len(articles)
	}
	titles := make([]string, 0, limit)
	for _, a := range articles[:limit] {
		titles = append(titles, a.Title)
	}

	digest, err := s.assistant.Summarize(ctx, titles)
	s.metrics.ObserveAICall(assist.OpSummarize, err)
	if err != nil {
		s.log.Warn().Err(err).Int("titles", len(titles)).Msg("Digest unavailable")
		return ""
	}
	return digest
}

func (s *articleService) Stats(ctx context.Context) (*models.Stats, error) {
	unread, err := s.repo.Count(ctx, models.Unread(0).Archived)
	if err != nil {
		return nil, err
	}
	archived, err := s.repo.Count(ctx, models.Archived(0).Archived)
	if err != nil {
		return nil, err
	}
	return &models.Stats{Unread: unread, Archived: archived}, nil
}

// excerpt keeps the first n runes of text and marks the cut with "...".
// n <= 0 disables the excerpt.
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:n])) + "..."
}
