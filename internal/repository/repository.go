package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// ErrDuplicateSlug is returned when an insert or update would break the
// per-project slug uniqueness constraint
var ErrDuplicateSlug = errors.New("duplicate article slug")

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id string) (*models.Article, error)
	SlugExists(ctx context.Context, projectID, slug, excludeID string) (bool, error)
	Update(ctx context.Context, id string, changes *models.ArticleChanges) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	MarkPublished(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, error)
	CountFiltered(ctx context.Context, filter *models.ArticleFilter) (int, error)
	IncrementViews(ctx context.Context, id string) (bool, error)
	ListDueScheduled(ctx context.Context, before time.Time, limit int) ([]*models.Article, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, filter *models.ArticleFilter, callback func(*models.Article) error) error
}

// TagRepository defines the interface for tag data operations.
// Attach, Detach and DetachAll keep usage_count in step with article_tags.
type TagRepository interface {
	ArticleTags(ctx context.Context, articleID string) ([]*models.Tag, error)
	Ensure(ctx context.Context, name, slug string) (string, error)
	Attach(ctx context.Context, articleID, tagID string, position int) error
	Detach(ctx context.Context, articleID, tagID string) error
	SetPosition(ctx context.Context, articleID, tagID string, position int) error
	DetachAll(ctx context.Context, articleID string) error
	List(ctx context.Context) ([]*models.Tag, error)
	Count(ctx context.Context) (int, error)
}

// MemberRepository reads project membership for authorization
type MemberRepository interface {
	GetRole(ctx context.Context, projectID, userID string) (string, error)
	ListUserIDs(ctx context.Context, projectID string) ([]string, error)
}

// ActivityRepository appends audit log entries
type ActivityRepository interface {
	Log(ctx context.Context, entry *models.ActivityLog) error
}

// NotificationRepository stores user notifications
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) (int, error)
}

// AnalyticsRepository accumulates daily article view counts
type AnalyticsRepository interface {
	RecordView(ctx context.Context, articleID string, day time.Time, unique bool) error
	ListDaily(ctx context.Context, articleID string, from, to time.Time) ([]*models.ArticleAnalytics, error)
}

// VisitorRepository remembers which visitors have viewed an article on a given day
type VisitorRepository interface {
	MarkVisit(ctx context.Context, articleID, visitorID string, day time.Time) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article      ArticleRepository
	Tag          TagRepository
	Member       MemberRepository
	Activity     ActivityRepository
	Notification NotificationRepository
	Analytics    AnalyticsRepository
	Visitor      VisitorRepository // nil when Redis is not configured
}

// New creates all repositories with the given connections. rdb may be nil.
func New(db *database.DB, rdb *redis.Client, visitorTTL time.Duration) *Repositories {
	repos := &Repositories{
		Article:      NewArticleRepo(db),
		Tag:          NewTagRepo(db),
		Member:       NewMemberRepo(db),
		Activity:     NewActivityRepo(db),
		Notification: NewNotificationRepo(db),
		Analytics:    NewAnalyticsRepo(db),
	}
	if rdb != nil {
		repos.Visitor = NewVisitorRepo(rdb, visitorTTL)
	}
	return repos
}
