package mocks

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/service"
)

// MockArticleService is a mock implementation of ArticleService.
// Each call is delegated to the matching Func field when set.
type MockArticleService struct {
	mu sync.Mutex

	ListFunc       func(ctx context.Context, filter *models.ArticleFilter) (*models.ArticleList, error)
	GetFunc        func(ctx context.Context, id string) (*models.Article, error)
	CreateFunc     func(ctx context.Context, in *models.CreateArticleInput, authorID string) (*models.Article, error)
	UpdateFunc     func(ctx context.Context, id string, in *models.UpdateArticleInput, userID string) (*models.Article, error)
	DeleteFunc     func(ctx context.Context, id, userID string) error
	PublishFunc    func(ctx context.Context, id, userID string) (*models.Article, error)
	TrackViewFunc  func(ctx context.Context, id string, event *models.ViewEvent) error
	BulkActionFunc func(ctx context.Context, ids []string, action models.BulkAction, userID string) (*models.BulkResult, error)
	AnalyticsFunc  func(ctx context.Context, id string, days int) ([]*models.ArticleAnalytics, error)

	Tags       []*models.Tag
	Views      []*models.ViewEvent
	LastFilter *models.ArticleFilter
	LastUpdate *models.UpdateArticleInput
	LastUserID string
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{
		Tags:  make([]*models.Tag, 0),
		Views: make([]*models.ViewEvent, 0),
	}
}

func (m *MockArticleService) List(ctx context.Context, filter *models.ArticleFilter) (*models.ArticleList, error) {
	m.mu.Lock()
	m.LastFilter = filter
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return &models.ArticleList{Articles: []*models.Article{}, Page: 1, Limit: models.DefaultPageLimit}, nil
}

func (m *MockArticleService) Get(ctx context.Context, id string) (*models.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockArticleService) Create(ctx context.Context, in *models.CreateArticleInput, authorID string) (*models.Article, error) {
	m.mu.Lock()
	m.LastUserID = authorID
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in, authorID)
	}
	return &models.Article{
		ID:        "test-article-id",
		ProjectID: in.ProjectID,
		AuthorID:  authorID,
		Title:     in.Title,
		Slug:      in.Slug,
		Content:   in.Content,
		Status:    models.StatusDraft,
		Tags:      in.Tags,
	}, nil
}

func (m *MockArticleService) Update(ctx context.Context, id string, in *models.UpdateArticleInput, userID string) (*models.Article, error) {
	m.mu.Lock()
	m.LastUpdate = in
	m.LastUserID = userID
	m.mu.Unlock()

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, in, userID)
	}
	return &models.Article{ID: id}, nil
}

func (m *MockArticleService) Delete(ctx context.Context, id, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockArticleService) Publish(ctx context.Context, id, userID string) (*models.Article, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, id, userID)
	}
	return &models.Article{ID: id, Status: models.StatusPublished}, nil
}

func (m *MockArticleService) TrackView(ctx context.Context, id string, event *models.ViewEvent) error {
	m.mu.Lock()
	m.Views = append(m.Views, event)
	m.mu.Unlock()

	if m.TrackViewFunc != nil {
		return m.TrackViewFunc(ctx, id, event)
	}
	return nil
}

func (m *MockArticleService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return m.Tags, nil
}

func (m *MockArticleService) BulkAction(ctx context.Context, ids []string, action models.BulkAction, userID string) (*models.BulkResult, error) {
	if m.BulkActionFunc != nil {
		return m.BulkActionFunc(ctx, ids, action, userID)
	}
	return &models.BulkResult{Success: len(ids), Errors: []string{}}, nil
}

func (m *MockArticleService) Analytics(ctx context.Context, id string, days int) ([]*models.ArticleAnalytics, error) {
	if m.AnalyticsFunc != nil {
		return m.AnalyticsFunc(ctx, id, days)
	}
	return []*models.ArticleAnalytics{}, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamArticlesFunc func(ctx context.Context, w http.ResponseWriter, filter *models.ArticleFilter, format string) error
	Counts             map[string]int
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{
		Counts: map[string]int{
			"articles": 0,
			"tags":     0,
		},
	}
}

func (m *MockExportService) StreamArticles(ctx context.Context, w http.ResponseWriter, filter *models.ArticleFilter, format string) error {
	if m.StreamArticlesFunc != nil {
		return m.StreamArticlesFunc(ctx, w, filter, format)
	}
	return nil
}

func (m *MockExportService) GetCount(ctx context.Context, resource string) (int, error) {
	count, ok := m.Counts[resource]
	if !ok {
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
	return count, nil
}

// MockScheduler is a mock implementation of Scheduler
type MockScheduler struct {
	Started bool
	Stopped bool
	Runs    int
}

// Verify interface compliance
var _ service.Scheduler = (*MockScheduler)(nil)

func (m *MockScheduler) Start() error {
	m.Started = true
	return nil
}

func (m *MockScheduler) Stop() {
	m.Stopped = true
}

func (m *MockScheduler) RunOnce(ctx context.Context) (int, error) {
	m.Runs++
	return 0, nil
}
