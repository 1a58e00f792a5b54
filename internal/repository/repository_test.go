package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/crm-content-api/internal/mocks"
	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
	"github.com/google/go-cmp/cmp"
)

func newArticle(id, projectID, slug string) *models.Article {
	now := time.Now()
	return &models.Article{
		ID:        id,
		ProjectID: projectID,
		AuthorID:  "author-1",
		Title:     "Title " + id,
		Slug:      slug,
		Content:   "body",
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMockArticleRepository_DuplicateSlug(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()

	if err := store.Articles.Create(ctx, newArticle("a1", "p1", "intro")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Same slug in another project is fine
	if err := store.Articles.Create(ctx, newArticle("a2", "p2", "intro")); err != nil {
		t.Fatalf("Create in other project failed: %v", err)
	}

	err := store.Articles.Create(ctx, newArticle("a3", "p1", "intro"))
	if !errors.Is(err, repository.ErrDuplicateSlug) {
		t.Errorf("Expected ErrDuplicateSlug, got %v", err)
	}

	exists, err := store.Articles.SlugExists(ctx, "p1", "intro", "")
	if err != nil || !exists {
		t.Errorf("Expected slug to exist, got %v (err %v)", exists, err)
	}

	exists, _ = store.Articles.SlugExists(ctx, "p1", "intro", "a1")
	if exists {
		t.Error("Slug owned by the excluded article should not count")
	}
}

func TestMockArticleRepository_ConcurrentCreate(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Articles.Create(ctx, newArticle(fmt.Sprintf("a%d", i), "p1", "same")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("Expected exactly one create to win, got %d", created)
	}
}

func TestMockArticleRepository_PublishedAtSetOnce(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()
	store.Articles.Create(ctx, newArticle("a1", "p1", "intro"))

	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ok, err := store.Articles.MarkPublished(ctx, "a1", first)
	if err != nil || !ok {
		t.Fatalf("MarkPublished failed: %v %v", ok, err)
	}

	ok, _ = store.Articles.MarkPublished(ctx, "a1", first.Add(time.Hour))
	if ok {
		t.Error("Second MarkPublished should not match")
	}

	later := first.Add(24 * time.Hour)
	status := models.StatusPublished
	store.Articles.Update(ctx, "a1", &models.ArticleChanges{Status: &status, PublishedAt: &later, UpdatedAt: later})

	a, _ := store.Articles.GetByID(ctx, "a1")
	if !a.PublishedAt.Equal(first) {
		t.Errorf("Expected published_at %v, got %v", first, a.PublishedAt)
	}
}

func TestMockArticleRepository_UpdateMissing(t *testing.T) {
	store := mocks.NewMockStore()
	title := "x"

	ok, err := store.Articles.Update(context.Background(), "missing", &models.ArticleChanges{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ok {
		t.Error("Expected no row to match")
	}
}

func TestMockArticleRepository_ListFilterAndPaging(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		a := newArticle(fmt.Sprintf("a%d", i), "p1", fmt.Sprintf("s%d", i))
		a.ViewCount = i * 10
		if i%2 == 0 {
			a.Status = models.StatusPublished
		}
		store.Articles.Create(ctx, a)
	}
	store.Articles.Create(ctx, newArticle("other", "p2", "s1"))

	filter := &models.ArticleFilter{ProjectID: "p1", Sort: "view_count", Order: "desc", Page: 1, Limit: 2}
	filter.Normalize()

	page, err := store.Articles.List(ctx, filter)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	var ids []string
	for _, a := range page {
		ids = append(ids, a.ID)
	}
	if diff := cmp.Diff([]string{"a5", "a4"}, ids); diff != "" {
		t.Errorf("Page mismatch (-want +got):\n%s", diff)
	}

	total, _ := store.Articles.CountFiltered(ctx, filter)
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}

	filter.Status = models.StatusPublished
	total, _ = store.Articles.CountFiltered(ctx, filter)
	if total != 2 {
		t.Errorf("Expected 2 published, got %d", total)
	}
}

func TestMockTagRepository_UsageCounts(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()
	store.Articles.Create(ctx, newArticle("a1", "p1", "one"))
	store.Articles.Create(ctx, newArticle("a2", "p1", "two"))

	crm, _ := store.Tags.Ensure(ctx, "CRM", "crm")
	again, _ := store.Tags.Ensure(ctx, "crm", "crm")
	if crm != again {
		t.Errorf("Ensure should return the existing tag, got %s and %s", crm, again)
	}

	store.Tags.Attach(ctx, "a1", crm, 0)
	store.Tags.Attach(ctx, "a1", crm, 0)
	store.Tags.Attach(ctx, "a2", crm, 0)
	if got := store.Tags.UsageCount("crm"); got != 2 {
		t.Errorf("Expected usage 2, got %d", got)
	}

	store.Tags.Detach(ctx, "a1", crm)
	store.Tags.Detach(ctx, "a1", crm)
	if got := store.Tags.UsageCount("crm"); got != 1 {
		t.Errorf("Expected usage 1, got %d", got)
	}

	store.Tags.DetachAll(ctx, "a2")
	store.Tags.DetachAll(ctx, "a2")
	if got := store.Tags.UsageCount("crm"); got != 0 {
		t.Errorf("Expected usage 0, got %d", got)
	}
}

func TestMockTagRepository_PositionOrder(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()
	store.Articles.Create(ctx, newArticle("a1", "p1", "one"))

	goID, _ := store.Tags.Ensure(ctx, "Go", "go")
	crmID, _ := store.Tags.Ensure(ctx, "CRM", "crm")
	store.Tags.Attach(ctx, "a1", goID, 0)
	store.Tags.Attach(ctx, "a1", crmID, 1)
	store.Tags.SetPosition(ctx, "a1", goID, 2)

	a, _ := store.Articles.GetByID(ctx, "a1")
	if diff := cmp.Diff([]string{"CRM", "Go"}, a.Tags); diff != "" {
		t.Errorf("Tag order mismatch (-want +got):\n%s", diff)
	}
}

func TestMockArticleRepository_DeleteCascadesLinks(t *testing.T) {
	store := mocks.NewMockStore()
	ctx := context.Background()
	store.Articles.Create(ctx, newArticle("a1", "p1", "one"))

	id, _ := store.Tags.Ensure(ctx, "Go", "go")
	store.Tags.Attach(ctx, "a1", id, 0)

	ok, err := store.Articles.Delete(ctx, "a1")
	if err != nil || !ok {
		t.Fatalf("Delete failed: %v %v", ok, err)
	}
	if names := store.Tags.TagNames("a1"); len(names) != 0 {
		t.Errorf("Expected links removed, got %v", names)
	}

	ok, _ = store.Articles.Delete(ctx, "a1")
	if ok {
		t.Error("Deleting twice should not match")
	}
}

func TestMockVisitorRepository_DedupPerDay(t *testing.T) {
	repo := mocks.NewMockVisitorRepository()
	ctx := context.Background()
	day := time.Date(2026, 5, 18, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		articleID string
		visitorID string
		day       time.Time
		want      bool
	}{
		{"first visit", "a1", "v1", day, true},
		{"same day", "a1", "v1", day.Add(time.Hour), false},
		{"other visitor", "a1", "v2", day, true},
		{"other article", "a2", "v1", day, true},
		{"next day", "a1", "v1", day.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.MarkVisit(ctx, tt.articleID, tt.visitorID, tt.day)
			if err != nil {
				t.Fatalf("MarkVisit failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMockAnalyticsRepository_ListDaily(t *testing.T) {
	repo := mocks.NewMockAnalyticsRepository()
	ctx := context.Background()
	day := time.Date(2026, 5, 18, 0, 0, 0, 0, time.UTC)

	repo.RecordView(ctx, "a1", day, true)
	repo.RecordView(ctx, "a1", day, false)
	repo.RecordView(ctx, "a1", day.AddDate(0, 0, -1), true)
	repo.RecordView(ctx, "a1", day.AddDate(0, 0, -10), true)

	rows, err := repo.ListDaily(ctx, "a1", day.AddDate(0, 0, -6), day)
	if err != nil {
		t.Fatalf("ListDaily failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[1].Views != 2 || rows[1].UniqueViews != 1 {
		t.Errorf("Unexpected row: %+v", rows[1])
	}
}
