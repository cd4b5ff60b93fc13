package mocks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/repository"
)

// Verify interface compliance
var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

// MockArticleRepository is an in-memory implementation of ArticleRepository.
// IDs are sequential and CreatedAt advances one second per insert.
type MockArticleRepository struct {
	Articles map[int64]*models.Article
	NextID   int64
	Clock    time.Time

	// CreateErrors is consumed one entry per Create call; a nil entry succeeds
	CreateErrors []error
	InsertError  error
	BatchError   error
	UpdateError  error
	DeleteError  error
	ListError    error
	TitlesError  error
	ExistsError  error

	CreateCalls int
	DeleteCalls int
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles: make(map[int64]*models.Article),
		NextID:   1,
		Clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockArticleRepository) insert(article *models.Article) {
	article.ID = m.NextID
	m.NextID++
	m.Clock = m.Clock.Add(time.Second)
	article.CreatedAt = m.Clock
	stored := *article
	m.Articles[article.ID] = &stored
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.CreateCalls++
	if len(m.CreateErrors) > 0 {
		err := m.CreateErrors[0]
		m.CreateErrors = m.CreateErrors[1:]
		if err != nil {
			return err
		}
	} else if m.InsertError != nil {
		return m.InsertError
	}
	m.insert(article)
	return nil
}

func (m *MockArticleRepository) CreateBatch(ctx context.Context, articles []*models.Article) (int, error) {
	if m.BatchError != nil {
		return 0, m.BatchError
	}
	for _, a := range articles {
		m.insert(a)
	}
	return len(articles), nil
}

func (m *MockArticleRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	a, ok := m.Articles[id]
	if !ok {
		return &common.StoreError{Op: "update", Err: fmt.Errorf("article %d: %w", id, common.ErrNotFound)}
	}
	a.IsArchived = archived
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) error {
	m.DeleteCalls++
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Articles, id)
	return nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	result := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		if filter.Archived != nil && a.IsArchived != *filter.Archived {
			continue
		}
		copied := *a
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockArticleRepository) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	if m.TitlesError != nil {
		return nil, m.TitlesError
	}
	articles, _ := m.List(ctx, models.ListFilter{Limit: limit})
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	return titles, nil
}

func (m *MockArticleRepository) URLExists(ctx context.Context, url string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	for _, a := range m.Articles {
		if a.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockArticleRepository) Count(ctx context.Context, archived *bool) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	articles, _ := m.List(ctx, models.ListFilter{Archived: archived})
	return len(articles), nil
}
