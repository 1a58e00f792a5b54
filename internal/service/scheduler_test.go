package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/crm-content-api/internal/config"
	"github.com/crm-content-api/internal/mocks"
	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/service"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func newTestServices(t *testing.T, sched config.SchedulerConfig) (*service.Services, *mocks.MockStore) {
	t.Helper()
	store := mocks.NewMockStore()
	store.Members.AddMember(projectID, authorID, models.RoleContributor)
	cfg := &config.Config{
		Articles:  config.ArticlesConfig{BulkConcurrency: 2},
		Scheduler: sched,
	}
	return service.NewServices(store.Repositories(false), cfg, zerolog.Nop()), store
}

func createScheduled(t *testing.T, svc service.ArticleService, slug string, at time.Time) *models.Article {
	t.Helper()
	article, err := svc.Create(context.Background(), &models.CreateArticleInput{
		ProjectID:   projectID,
		Title:       "Scheduled " + slug,
		Slug:        slug,
		Content:     "coming soon",
		Status:      models.StatusScheduled,
		ScheduledAt: &at,
	}, authorID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return article
}

func TestScheduler_RunOnce(t *testing.T) {
	services, store := newTestServices(t, config.SchedulerConfig{BatchSize: 10, Workers: 2})
	ctx := context.Background()

	var due []*models.Article
	for _, slug := range []string{"due-1", "due-2", "due-3"} {
		due = append(due, createScheduled(t, services.Article, slug, time.Now().Add(-time.Minute)))
	}
	future := createScheduled(t, services.Article, "future", time.Now().Add(time.Hour))

	published, err := services.Scheduler.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if published != len(due) {
		t.Errorf("Expected %d published, got %d", len(due), published)
	}

	for _, a := range due {
		current, _ := services.Article.Get(ctx, a.ID)
		if current.Status != models.StatusPublished || current.PublishedAt == nil {
			t.Errorf("Article %s should be published, got %s", a.Slug, current.Status)
		}
		entries := store.Activity.ByAction(models.ActionPublish, a.ID)
		if len(entries) != 1 || entries[0].UserID != authorID {
			t.Errorf("Expected one publish audit entry by the author for %s", a.Slug)
		}
	}

	current, _ := services.Article.Get(ctx, future.ID)
	if current.Status != models.StatusScheduled {
		t.Errorf("Future article should stay scheduled, got %s", current.Status)
	}

	again, err := services.Scheduler.RunOnce(ctx)
	if err != nil {
		t.Fatalf("Second RunOnce failed: %v", err)
	}
	if again != 0 {
		t.Errorf("Expected nothing left to publish, got %d", again)
	}
}

func TestScheduler_BatchSize(t *testing.T) {
	services, _ := newTestServices(t, config.SchedulerConfig{BatchSize: 2, Workers: 1})

	for _, slug := range []string{"b-1", "b-2", "b-3"} {
		createScheduled(t, services.Article, slug, time.Now().Add(-time.Minute))
	}

	published, err := services.Scheduler.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if published != 2 {
		t.Errorf("Expected batch of 2, got %d", published)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	services, _ := newTestServices(t, config.SchedulerConfig{
		Enabled:   true,
		Spec:      "@every 1h",
		BatchSize: 10,
		Workers:   2,
	})

	if err := services.Scheduler.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Starting twice is a no-op
	if err := services.Scheduler.Start(); err != nil {
		t.Fatalf("Second Start failed: %v", err)
	}
	services.Scheduler.Stop()
	services.Scheduler.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	defer goleak.VerifyNone(t)

	services, _ := newTestServices(t, config.SchedulerConfig{Enabled: true, Spec: "not a schedule"})

	if err := services.Scheduler.Start(); err == nil {
		t.Error("Expected error for invalid spec")
	}
}

func TestScheduler_Disabled(t *testing.T) {
	services, _ := newTestServices(t, config.SchedulerConfig{Enabled: false})

	if err := services.Scheduler.Start(); err != nil {
		t.Errorf("Disabled scheduler should start cleanly, got %v", err)
	}
	services.Scheduler.Stop()
}
