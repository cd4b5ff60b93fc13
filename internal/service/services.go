package service

import (
	"context"

	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/repository"
	"github.com/rs/zerolog"
)

// Extractor fetches a page and returns its title, lead image and text
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractedPage, error)
}

// Assistant is the text generation side of AI assist
type Assistant interface {
	Summarize(ctx context.Context, titles []string) (string, error)
	SynthesizeQuery(ctx context.Context, preference, hint string) (string, error)
	Justify(ctx context.Context, title string) (string, error)
	SuggestTitle(ctx context.Context, url string) (string, error)
}

// Searcher is the web search side of AI assist
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]models.SearchResult, error)
}

// ArticleService defines the interface for saved-article operations
type ArticleService interface {
	Save(ctx context.Context, url string) (*models.SaveResult, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error)
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Digest(ctx context.Context, articles []*models.Article) string
	Stats(ctx context.Context) (*models.Stats, error)
}

// CollectService defines the interface for the AI-collect flow
type CollectService interface {
	Collect(ctx context.Context, req models.CollectRequest) ([]*models.Article, error)
	Enabled() bool
}

// Adapters holds the external collaborators. Any of them may be nil when
// the matching backend is not configured.
type Adapters struct {
	Extractor Extractor
	Assistant Assistant
	Searcher  Searcher
}

// Services holds all service interfaces
type Services struct {
	Articles ArticleService
	Collect  CollectService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, adapters Adapters, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *Services {
	return &Services{
		Articles: newArticleService(repos.Article, adapters, cfg, m, log),
		Collect:  newCollectService(repos.Article, adapters, cfg.Collect, m, log),
	}
}
