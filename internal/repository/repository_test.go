package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/mocks"
	"github.com/read-it-later/internal/models"
)

// The in-memory repository backs the service and handler tests, so it has to
// honor the same contract as the PostgreSQL implementation.

func TestMockArticleRepository_CreateAssignsIDAndTime(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	first := &models.Article{URL: "https://example.com/1", Title: "One"}
	second := &models.Article{URL: "https://example.com/2", Title: "Two"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("Expected sequential ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Error("Expected created_at to advance")
	}
	if repo.Articles[1].IsArchived {
		t.Error("New articles must not be archived")
	}
}

func TestMockArticleRepository_BatchInsert(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	articles := []*models.Article{
		{URL: "https://a.example", Title: "A", AIReason: "why A"},
		{URL: "https://b.example", Title: "B", AIReason: "why B"},
		{URL: "https://c.example", Title: "C", AIReason: "why C"},
	}

	inserted, err := repo.CreateBatch(ctx, articles)
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted, got %d", inserted)
	}
	if len(repo.Articles) != 3 {
		t.Errorf("Expected 3 articles in repo, got %d", len(repo.Articles))
	}

	repo.BatchError = &common.StoreError{Op: "insert batch", Err: errors.New("boom")}
	if _, err := repo.CreateBatch(ctx, []*models.Article{{URL: "https://d.example", Title: "D"}}); err == nil {
		t.Error("Expected batch error")
	}
	if len(repo.Articles) != 3 {
		t.Errorf("Failed batch must not insert anything, got %d articles", len(repo.Articles))
	}
}

func TestMockArticleRepository_SetArchived(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	a := &models.Article{URL: "https://example.com", Title: "x"}
	repo.Create(ctx, a)

	for i := 0; i < 2; i++ {
		if err := repo.SetArchived(ctx, a.ID, true); err != nil {
			t.Fatalf("SetArchived #%d failed: %v", i+1, err)
		}
	}
	if !repo.Articles[a.ID].IsArchived {
		t.Error("Expected article to be archived")
	}

	err := repo.SetArchived(ctx, 99, true)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	var se *common.StoreError
	if !errors.As(err, &se) {
		t.Errorf("Expected StoreError, got %T", err)
	}
}

func TestMockArticleRepository_DeleteIdempotent(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	a := &models.Article{URL: "https://example.com", Title: "x"}
	repo.Create(ctx, a)

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Errorf("Second delete should be a no-op, got %v", err)
	}
}

func TestMockArticleRepository_ListFilterOrderLimit(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		repo.Create(ctx, &models.Article{URL: "https://example.com", Title: "x"})
	}
	repo.SetArchived(ctx, 2, true)
	repo.SetArchived(ctx, 4, true)

	unread, _ := repo.List(ctx, models.Unread(0))
	want := []int64{6, 5, 3, 1}
	if len(unread) != len(want) {
		t.Fatalf("Expected %d unread, got %d", len(want), len(unread))
	}
	for i, a := range unread {
		if a.ID != want[i] {
			t.Errorf("Position %d: expected id %d, got %d", i, want[i], a.ID)
		}
	}

	all, _ := repo.List(ctx, models.ListFilter{Limit: 2})
	if len(all) != 2 || all[0].ID != 6 {
		t.Errorf("Expected the two newest articles, got %d rows", len(all))
	}

	count, _ := repo.Count(ctx, models.Archived(0).Archived)
	if count != 2 {
		t.Errorf("Expected 2 archived, got %d", count)
	}
}

func TestMockArticleRepository_RecentTitlesAndURLExists(t *testing.T) {
	repo := mocks.NewMockArticleRepository()
	ctx := context.Background()

	for _, title := range []string{"old", "middle", "new"} {
		repo.Create(ctx, &models.Article{URL: "https://example.com/" + title, Title: title})
	}

	titles, _ := repo.RecentTitles(ctx, 2)
	if len(titles) != 2 || titles[0] != "new" || titles[1] != "middle" {
		t.Errorf("Unexpected recent titles: %v", titles)
	}

	exists, _ := repo.URLExists(ctx, "https://example.com/old")
	if !exists {
		t.Error("Expected URL to exist")
	}
	exists, _ = repo.URLExists(ctx, "https://example.com/missing")
	if exists {
		t.Error("Expected URL to be absent")
	}
}
