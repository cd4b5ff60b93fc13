package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/database"
	"github.com/read-it-later/internal/models"
)

const articleColumns = "id, url, title, image_url, summary, ai_reason, is_archived, created_at"

const insertArticle = `
		INSERT INTO articles (url, title, image_url, summary, ai_reason, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// storeError wraps a driver error, keeping the SQLSTATE when lib/pq reports one
func storeError(op string, err error) error {
	se := &common.StoreError{Op: op, Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se.Code = string(pqErr.Code)
	}
	return se
}

// Create inserts a new article; the database assigns ID and CreatedAt
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, insertArticle,
		article.URL, article.Title, article.ImageURL, article.Summary,
		article.AIReason, article.IsArchived,
	).Scan(&article.ID, &article.CreatedAt)
	if err != nil {
		return storeError("insert", err)
	}
	article.CreatedAt = article.CreatedAt.UTC()
	return nil
}

// CreateBatch inserts articles in one transaction; either all rows are
// persisted or none
func (r *articleRepo) CreateBatch(ctx context.Context, articles []*models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeError("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertArticle)
	if err != nil {
		return 0, storeError("prepare", err)
	}
	defer stmt.Close()

	for _, article := range articles {
		err := stmt.QueryRowContext(ctx,
			article.URL, article.Title, article.ImageURL, article.Summary,
			article.AIReason, article.IsArchived,
		).Scan(&article.ID, &article.CreatedAt)
		if err != nil {
			return 0, storeError("batch insert", err)
		}
		article.CreatedAt = article.CreatedAt.UTC()
	}

	if err := tx.Commit(); err != nil {
		return 0, storeError("commit", err)
	}

	return len(articles), nil
}

// SetArchived sets the archive flag. Setting the current value again
// succeeds; an unknown id yields a StoreError wrapping common.ErrNotFound.
func (r *articleRepo) SetArchived(ctx context.Context, id int64, archived bool) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "UPDATE articles SET is_archived = $1 WHERE id = $2", archived, id)
	if err != nil {
		return storeError("update", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeError("update", err)
	}
	if affected == 0 {
		return storeError("update", fmt.Errorf("article %d: %w", id, common.ErrNotFound))
	}
	return nil
}

// Delete removes an article; deleting an absent id is a no-op
func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id); err != nil {
		return storeError("delete", err)
	}
	return nil
}

// List returns articles matching the filter, newest first
func (r *articleRepo) List(ctx context.Context, filter models.ListFilter) ([]*models.Article, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var query strings.Builder
	args := make([]any, 0, 2)

	query.WriteString("SELECT " + articleColumns + " FROM articles")
	if filter.Archived != nil {
		args = append(args, *filter.Archived)
		fmt.Fprintf(&query, " WHERE is_archived = $%d", len(args))
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&query, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, storeError("select", err)
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(
			&a.ID, &a.URL, &a.Title, &a.ImageURL, &a.Summary,
			&a.AIReason, &a.IsArchived, &a.CreatedAt,
		); err != nil {
			return nil, storeError("scan", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		articles = append(articles, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("select", err)
	}

	return articles, nil
}

// RecentTitles returns up to limit titles, newest first
func (r *articleRepo) RecentTitles(ctx context.Context, limit int) ([]string, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, "SELECT title FROM articles ORDER BY created_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, storeError("select titles", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, storeError("scan", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("select titles", err)
	}
	return titles, nil
}

// URLExists checks if an article with the given URL was already saved
func (r *articleRepo) URLExists(ctx context.Context, url string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)", url).Scan(&exists)
	if err != nil {
		return false, storeError("exists", err)
	}
	return exists, nil
}

// Count returns the number of articles, optionally filtered by archive state
func (r *articleRepo) Count(ctx context.Context, archived *bool) (int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var (
		count int
		err   error
	)
	if archived == nil {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE is_archived = $1", *archived).Scan(&count)
	}
	if err != nil {
		return 0, storeError("count", err)
	}
	return count, nil
}
