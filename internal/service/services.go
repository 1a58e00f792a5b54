package service

import (
	"context"
	"net/http"
	"time"

	"github.com/crm-content-api/internal/config"
	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
	"github.com/rs/zerolog"
)

// ArticleService defines the article content management operations
type ArticleService interface {
	List(ctx context.Context, filter *models.ArticleFilter) (*models.ArticleList, error)
	Get(ctx context.Context, id string) (*models.Article, error)
	Create(ctx context.Context, in *models.CreateArticleInput, authorID string) (*models.Article, error)
	Update(ctx context.Context, id string, in *models.UpdateArticleInput, userID string) (*models.Article, error)
	Delete(ctx context.Context, id, userID string) error
	Publish(ctx context.Context, id, userID string) (*models.Article, error)
	TrackView(ctx context.Context, id string, event *models.ViewEvent) error
	ListTags(ctx context.Context) ([]*models.Tag, error)
	BulkAction(ctx context.Context, ids []string, action models.BulkAction, userID string) (*models.BulkResult, error)
	Analytics(ctx context.Context, id string, days int) ([]*models.ArticleAnalytics, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, filter *models.ArticleFilter, format string) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// Scheduler publishes scheduled articles once their time has come
type Scheduler interface {
	Start() error
	Stop()
	RunOnce(ctx context.Context) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Article   ArticleService
	Export    ExportService
	Scheduler Scheduler
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	articleSvc := newArticleService(repos, cfg.Articles, log)

	return &Services{
		Article:   articleSvc,
		Export:    newExportService(repos, log),
		Scheduler: newScheduler(articleSvc, repos.Article, cfg.Scheduler, log),
	}
}

// utcDay truncates t to midnight UTC
func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
