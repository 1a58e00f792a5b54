package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crm-content-api/internal/config"
	"github.com/crm-content-api/internal/models"
	"github.com/crm-content-api/internal/repository"
	"github.com/crm-content-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos           *repository.Repositories
	bulkConcurrency int
	log             zerolog.Logger
	now             func() time.Time
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, cfg config.ArticlesConfig, log zerolog.Logger) *articleService {
	concurrency := cfg.BulkConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &articleService{
		repos:           repos,
		bulkConcurrency: concurrency,
		log:             log.With().Str("service", "article").Logger(),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// NewArticleService builds an ArticleService over the given repositories
func NewArticleService(repos *repository.Repositories, cfg config.ArticlesConfig, log zerolog.Logger) ArticleService {
	return newArticleService(repos, cfg, log)
}

// List returns a page of articles and the total match count. The page and
// count queries run concurrently over the same predicate.
func (s *articleService) List(ctx context.Context, filter *models.ArticleFilter) (*models.ArticleList, error) {
	f := *filter
	f.Normalize()
	if f.Status != "" && !models.ValidStatuses[f.Status] {
		return nil, invalid("status", "invalid status filter", f.Status)
	}

	var articles []*models.Article
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = s.repos.Article.List(gctx, &f)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repos.Article.CountFiltered(gctx, &f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	if articles == nil {
		articles = []*models.Article{}
	}
	return &models.ArticleList{Articles: articles, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Get returns the article with join data and tags, or nil if it does not exist
func (s *articleService) Get(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

// Create validates and persists a new article, attaches its tags and
// records a create entry in the audit log
func (s *articleService) Create(ctx context.Context, in *models.CreateArticleInput, authorID string) (*models.Article, error) {
	if errs := validation.ValidateCreateArticle(in); len(errs) > 0 {
		return nil, &ValidationFailure{Errors: errs}
	}

	exists, err := s.repos.Article.SlugExists(ctx, in.ProjectID, in.Slug, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrSlugExists, in.Slug)
	}

	now := s.now()
	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}

	article := &models.Article{
		ID:             uuid.New().String(),
		ProjectID:      in.ProjectID,
		AuthorID:       authorID,
		Title:          in.Title,
		Slug:           in.Slug,
		Excerpt:        in.Excerpt,
		Content:        in.Content,
		Category:       in.Category,
		Status:         status,
		Featured:       in.Featured,
		CoverImage:     in.CoverImage,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		ReadingTime:    models.ReadingTime(in.Content),
		ScheduledAt:    in.ScheduledAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == models.StatusPublished {
		article.PublishedAt = &now
	}

	if err := s.repos.Article.Create(ctx, article); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, in.Slug)
		}
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	if err := s.reconcileTags(ctx, article.ID, in.Tags); err != nil {
		return nil, err
	}

	created, err := s.repos.Article.GetByID(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read created article: %w", err)
	}
	if created == nil {
		return nil, ErrNotFound
	}

	if err := s.logActivity(ctx, authorID, models.ActionCreate, article.ID, nil, created); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("article_id", article.ID).
		Str("project_id", article.ProjectID).
		Str("status", string(status)).
		Msg("Article created")

	return created, nil
}

// Update applies a partial update. Only fields present in the input are written.
func (s *articleService) Update(ctx context.Context, id string, in *models.UpdateArticleInput, userID string) (*models.Article, error) {
	existing, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	if err := s.authorize(ctx, existing, userID, models.PermissionEdit); err != nil {
		return nil, err
	}

	if errs := validation.ValidateUpdateArticle(in); len(errs) > 0 {
		return nil, &ValidationFailure{Errors: errs}
	}

	if in.Status != nil && *in.Status == models.StatusScheduled &&
		in.ScheduledAt == nil && existing.ScheduledAt == nil {
		return nil, invalid("scheduled_at", "scheduled articles require scheduled_at", nil)
	}

	if in.Slug != nil && *in.Slug != existing.Slug {
		exists, err := s.repos.Article.SlugExists(ctx, existing.ProjectID, *in.Slug, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, *in.Slug)
		}
	}

	now := s.now()
	changes := &models.ArticleChanges{
		Title:          in.Title,
		Slug:           in.Slug,
		Excerpt:        in.Excerpt,
		Content:        in.Content,
		Category:       in.Category,
		Status:         in.Status,
		Featured:       in.Featured,
		CoverImage:     in.CoverImage,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		ScheduledAt:    in.ScheduledAt,
		UpdatedAt:      now,
	}
	if in.Content != nil {
		minutes := models.ReadingTime(*in.Content)
		changes.ReadingTime = &minutes
	}
	if in.Status != nil && *in.Status == models.StatusPublished &&
		existing.Status != models.StatusPublished && existing.PublishedAt == nil {
		changes.PublishedAt = &now
	}

	updated, err := s.repos.Article.Update(ctx, id, changes)
	if errors.Is(err, repository.ErrDuplicateSlug) {
		return nil, fmt.Errorf("%w: %s", ErrSlugExists, *in.Slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	if !updated {
		return nil, ErrNotFound
	}

	if in.Tags != nil {
		if err := s.reconcileTags(ctx, id, *in.Tags); err != nil {
			return nil, err
		}
	}

	refreshed, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read updated article: %w", err)
	}
	if refreshed == nil {
		return nil, ErrNotFound
	}

	if err := s.logActivity(ctx, userID, models.ActionUpdate, id, existing, refreshed); err != nil {
		return nil, err
	}

	s.log.Info().Str("article_id", id).Str("user_id", userID).Msg("Article updated")
	return refreshed, nil
}

// Delete removes an article permanently and releases its tags
func (s *articleService) Delete(ctx context.Context, id, userID string) error {
	existing, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get article: %w", err)
	}
	if existing == nil {
		return ErrNotFound
	}

	if err := s.authorize(ctx, existing, userID, models.PermissionDelete); err != nil {
		return err
	}

	if err := s.repos.Tag.DetachAll(ctx, id); err != nil {
		return fmt.Errorf("failed to release tags: %w", err)
	}

	deleted, err := s.repos.Article.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	if err := s.logActivity(ctx, userID, models.ActionDelete, id, existing, nil); err != nil {
		return err
	}

	s.log.Info().Str("article_id", id).Str("user_id", userID).Msg("Article deleted")
	return nil
}

// Publish moves an article into published and notifies project members
func (s *articleService) Publish(ctx context.Context, id, userID string) (*models.Article, error) {
	existing, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	if err := s.authorize(ctx, existing, userID, models.PermissionPublish); err != nil {
		return nil, err
	}

	if existing.Status == models.StatusPublished {
		return nil, ErrAlreadyPublished
	}

	return s.publish(ctx, existing, userID)
}

// publish performs the status transition. The conditional update makes a
// concurrent second publish fail with ErrAlreadyPublished.
func (s *articleService) publish(ctx context.Context, existing *models.Article, actorID string) (*models.Article, error) {
	changed, err := s.repos.Article.MarkPublished(ctx, existing.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to publish article: %w", err)
	}
	if !changed {
		return nil, ErrAlreadyPublished
	}

	published, err := s.repos.Article.GetByID(ctx, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read published article: %w", err)
	}
	if published == nil {
		return nil, ErrNotFound
	}

	if err := s.logActivity(ctx, actorID, models.ActionPublish, existing.ID, existing, published); err != nil {
		return nil, err
	}

	notified, err := s.notifyMembers(ctx, published)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("article_id", existing.ID).
		Str("user_id", actorID).
		Int("notified", notified).
		Msg("Article published")

	return published, nil
}

// TrackView counts one view of an article
func (s *articleService) TrackView(ctx context.Context, id string, event *models.ViewEvent) error {
	if event == nil {
		event = &models.ViewEvent{}
	}

	found, err := s.repos.Article.IncrementViews(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if !found {
		return ErrNotFound
	}

	day := utcDay(s.now())
	unique := true
	if event.VisitorID != "" && s.repos.Visitor != nil {
		first, err := s.repos.Visitor.MarkVisit(ctx, id, event.VisitorID, day)
		if err != nil {
			// count the view as unique rather than lose it
			s.log.Warn().Err(err).Str("article_id", id).Msg("Visitor lookup failed")
		} else {
			unique = first
		}
	}

	if err := s.repos.Analytics.RecordView(ctx, id, day, unique); err != nil {
		return fmt.Errorf("failed to record analytics: %w", err)
	}

	s.log.Debug().
		Str("article_id", id).
		Str("source", event.Source).
		Str("referrer", event.Referrer).
		Bool("unique", unique).
		Msg("View tracked")

	return nil
}

// ListTags returns all tags with usage counts
func (s *articleService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.repos.Tag.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// Analytics returns daily view rows for the last days days, today included
func (s *articleService) Analytics(ctx context.Context, id string, days int) ([]*models.ArticleAnalytics, error) {
	if days < 1 {
		days = defaultAnalyticsDays
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}

	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return nil, ErrNotFound
	}

	to := utcDay(s.now())
	from := to.AddDate(0, 0, -(days - 1))

	rows, err := s.repos.Analytics.ListDaily(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return rows, nil
}

// authorize passes the article's author, or a project member whose role holds perm
func (s *articleService) authorize(ctx context.Context, article *models.Article, userID string, perm models.Permission) error {
	if userID != "" && article.AuthorID == userID {
		return nil
	}

	role, err := s.repos.Member.GetRole(ctx, article.ProjectID, userID)
	if err != nil {
		return fmt.Errorf("failed to check permissions: %w", err)
	}
	if !models.RoleAllows(role, perm) {
		s.log.Warn().
			Str("article_id", article.ID).
			Str("user_id", userID).
			Str("permission", string(perm)).
			Msg("Permission denied")
		return ErrPermissionDenied
	}
	return nil
}

type desiredTag struct {
	name string
	slug string
}

// reconcileTags makes the article's tag set exactly match names, in order.
// Only links that actually change touch usage_count.
func (s *articleService) reconcileTags(ctx context.Context, articleID string, names []string) error {
	var desired []desiredTag
	wanted := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := models.TagSlug(name)
		if slug == "" || wanted[slug] {
			continue
		}
		wanted[slug] = true
		desired = append(desired, desiredTag{name: name, slug: slug})
	}

	current, err := s.repos.Tag.ArticleTags(ctx, articleID)
	if err != nil {
		return fmt.Errorf("failed to load article tags: %w", err)
	}

	held := make(map[string]string, len(current))
	for _, tag := range current {
		if !wanted[tag.Slug] {
			if err := s.repos.Tag.Detach(ctx, articleID, tag.ID); err != nil {
				return fmt.Errorf("failed to detach tag %s: %w", tag.Name, err)
			}
			continue
		}
		held[tag.Slug] = tag.ID
	}

	for position, tag := range desired {
		if tagID, ok := held[tag.slug]; ok {
			if err := s.repos.Tag.SetPosition(ctx, articleID, tagID, position); err != nil {
				return fmt.Errorf("failed to reorder tag %s: %w", tag.name, err)
			}
			continue
		}

		tagID, err := s.repos.Tag.Ensure(ctx, tag.name, tag.slug)
		if err != nil {
			return fmt.Errorf("failed to ensure tag %s: %w", tag.name, err)
		}
		if err := s.repos.Tag.Attach(ctx, articleID, tagID, position); err != nil {
			return fmt.Errorf("failed to attach tag %s: %w", tag.name, err)
		}
	}

	return nil
}

// logActivity appends an audit entry with JSON snapshots of the article
func (s *articleService) logActivity(ctx context.Context, userID string, action models.ActivityAction, articleID string, before, after *models.Article) error {
	entry := &models.ActivityLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Action:     action,
		EntityType: models.EntityArticle,
		EntityID:   articleID,
		CreatedAt:  s.now(),
	}

	var err error
	if before != nil {
		if entry.OldValues, err = json.Marshal(before); err != nil {
			return fmt.Errorf("failed to encode audit snapshot: %w", err)
		}
	}
	if after != nil {
		if entry.NewValues, err = json.Marshal(after); err != nil {
			return fmt.Errorf("failed to encode audit snapshot: %w", err)
		}
	}

	if err := s.repos.Activity.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// notifyMembers creates one notification per current project member
func (s *articleService) notifyMembers(ctx context.Context, article *models.Article) (int, error) {
	userIDs, err := s.repos.Member.ListUserIDs(ctx, article.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list project members: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	now := s.now()
	notifications := make([]*models.Notification, len(userIDs))
	for i, userID := range userIDs {
		notifications[i] = &models.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Title:     "Article published",
			Message:   fmt.Sprintf("%q has been published", article.Title),
			Type:      "info",
			Category:  "article",
			Link:      "/dashboard/articles/" + article.ID,
			CreatedAt: now,
		}
	}

	created, err := s.repos.Notification.CreateBatch(ctx, notifications)
	if err != nil {
		return 0, fmt.Errorf("failed to create notifications: %w", err)
	}
	return created, nil
}
