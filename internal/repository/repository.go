package repository

import (
	"context"

	"github.com/read-it-later/internal/database"
	"github.com/read-it-later/internal/models"
)

// ArticleRepository defines the interface for saved-article data operations.
// Every failure is reported as a *common.StoreError.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	CreateBatch(ctx context.Context, articles []*models.Article) (int, error)
	SetArchived(ctx context.Context, id int64, archived bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error)
	RecentTitles(ctx context.Context, limit int) ([]string, error)
	URLExists(ctx context.Context, url string) (bool, error)
	Count(ctx context.Context, archived *bool) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
	}
}
