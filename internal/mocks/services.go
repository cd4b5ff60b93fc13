package mocks

import (
	"context"
	"fmt"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/service"
)

// MockExtractor is a mock implementation of service.Extractor
type MockExtractor struct {
	Page  *models.ExtractedPage
	Err   error
	Panic bool
	URLs  []string
}

// Verify interface compliance
var _ service.Extractor = (*MockExtractor)(nil)

func (m *MockExtractor) Extract(ctx context.Context, url string) (*models.ExtractedPage, error) {
	m.URLs = append(m.URLs, url)
	if m.Panic {
		panic("extractor blew up")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Page == nil {
		return &models.ExtractedPage{}, nil
	}
	page := *m.Page
	return &page, nil
}

// MockAssistant is a mock implementation of service.Assistant. Reasons maps
// a title to its justification; unknown titles get DefaultReason.
type MockAssistant struct {
	Summary       string
	Query         string
	Title         string
	Reasons       map[string]string
	DefaultReason string

	SummarizeErr error
	QueryErr     error
	JustifyErr   error
	TitleErr     error

	SummarizedTitles []string
	LastPreference   string
	LastHint         string
	JustifyCalls     int
}

// Verify interface compliance
var _ service.Assistant = (*MockAssistant)(nil)

func NewMockAssistant() *MockAssistant {
	return &MockAssistant{
		Summary:       "A digest of your reading list.",
		Query:         "golang news",
		Title:         "Suggested Title",
		Reasons:       make(map[string]string),
		DefaultReason: "Worth a read",
	}
}

func (m *MockAssistant) Summarize(ctx context.Context, titles []string) (string, error) {
	m.SummarizedTitles = titles
	if m.SummarizeErr != nil {
		return "", m.SummarizeErr
	}
	return m.Summary, nil
}

func (m *MockAssistant) SynthesizeQuery(ctx context.Context, preference, hint string) (string, error) {
	m.LastPreference = preference
	m.LastHint = hint
	if m.QueryErr != nil {
		return "", m.QueryErr
	}
	return m.Query, nil
}

func (m *MockAssistant) Justify(ctx context.Context, title string) (string, error) {
	m.JustifyCalls++
	if m.JustifyErr != nil {
		return "", m.JustifyErr
	}
	if reason, ok := m.Reasons[title]; ok {
		return reason, nil
	}
	return m.DefaultReason, nil
}

func (m *MockAssistant) SuggestTitle(ctx context.Context, url string) (string, error) {
	if m.TitleErr != nil {
		return "", m.TitleErr
	}
	return m.Title, nil
}

// MockSearcher is a mock implementation of service.Searcher. Like the real
// client it never returns more than max results.
type MockSearcher struct {
	Results   []models.SearchResult
	Err       error
	LastQuery string
	LastMax   int
}

// Verify interface compliance
var _ service.Searcher = (*MockSearcher)(nil)

func (m *MockSearcher) Search(ctx context.Context, query string, max int) ([]models.SearchResult, error) {
	m.LastQuery = query
	m.LastMax = max
	if m.Err != nil {
		return nil, m.Err
	}
	if max <= 0 {
		return nil, &common.SearchError{Query: query, Err: common.ErrInvalidInput}
	}
	if len(m.Results) > max {
		return m.Results[:max], nil
	}
	return m.Results, nil
}

// MockArticleService is a mock implementation of ArticleService backed by
// MockArticleRepository
type MockArticleService struct {
	Repo       *MockArticleRepository
	SaveFunc   func(ctx context.Context, url string) (*models.SaveResult, error)
	DigestText string
	StatsErr   error
	SavedURLs  []string
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{Repo: NewMockArticleRepository()}
}

func (m *MockArticleService) Save(ctx context.Context, url string) (*models.SaveResult, error) {
	m.SavedURLs = append(m.SavedURLs, url)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, url)
	}
	article := &models.Article{URL: url, Title: url}
	if err := m.Repo.Create(ctx, article); err != nil {
		return nil, err
	}
	return &models.SaveResult{Article: article}, nil
}

func (m *MockArticleService) List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error) {
	return m.Repo.List(ctx, filter)
}

func (m *MockArticleService) Archive(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, common.ErrInvalidInput)
	}
	return m.Repo.SetArchived(ctx, id, true)
}

func (m *MockArticleService) Unarchive(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, common.ErrInvalidInput)
	}
	return m.Repo.SetArchived(ctx, id, false)
}

func (m *MockArticleService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("id %d: %w", id, common.ErrInvalidInput)
	}
	return m.Repo.Delete(ctx, id)
}

func (m *MockArticleService) Digest(ctx context.Context, articles []*models.Article) string {
	if len(articles) == 0 {
		return ""
	}
	return m.DigestText
}

func (m *MockArticleService) Stats(ctx context.Context) (*models.Stats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	unread, _ := m.Repo.Count(ctx, models.Unread(0).Archived)
	archived, _ := m.Repo.Count(ctx, models.Archived(0).Archived)
	return &models.Stats{Unread: unread, Archived: archived}, nil
}

// MockCollectService is a mock implementation of CollectService
type MockCollectService struct {
	Available bool
	Err       error
	Articles  []*models.Article
	Requests  []models.CollectRequest
}

// Verify interface compliance
var _ service.CollectService = (*MockCollectService)(nil)

func (m *MockCollectService) Collect(ctx context.Context, req models.CollectRequest) ([]*models.Article, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Articles, nil
}

func (m *MockCollectService) Enabled() bool {
	return m.Available
}
