package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
)

// slugConstraint is the unique constraint on (project_id, slug)
const slugConstraint = "articles_project_slug_key"

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article. A slug collision within the project
// surfaces as ErrDuplicateSlug.
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (
			id, project_id, author_id, title, slug, excerpt, content, category, status,
			featured, cover_image, seo_title, seo_description, reading_time,
			published_at, scheduled_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.ProjectID, article.AuthorID, article.Title, article.Slug,
		optString(article.Excerpt), article.Content, optString(article.Category), article.Status,
		article.Featured, optString(article.CoverImage), optString(article.SEOTitle),
		optString(article.SEODescription), article.ReadingTime,
		optTime(article.PublishedAt), optTime(article.ScheduledAt),
		article.CreatedAt, article.UpdatedAt,
	)
	if database.IsUniqueViolation(err, slugConstraint) {
		return ErrDuplicateSlug
	}
	return err
}

// GetByID retrieves an article with join data and tags
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := articleSelect + "\n\tWHERE a.id = $1" + articleGroupBy

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return article, nil
}

// SlugExists checks if another article in the project already uses the slug.
// excludeID may be empty.
func (r *articleRepo) SlugExists(ctx context.Context, projectID, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM articles WHERE project_id = $1 AND slug = $2 AND id <> $3)",
		projectID, slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// Update writes the given changes. Returns false if the article does not exist.
func (r *articleRepo) Update(ctx context.Context, id string, changes *models.ArticleChanges) (bool, error) {
	query, args := buildArticleUpdate(id, changes)

	result, err := r.db.ExecContext(ctx, query, args...)
	if database.IsUniqueViolation(err, slugConstraint) {
		return false, ErrDuplicateSlug
	}
	if err != nil {
		return false, err
	}
	return affected(result)
}

// Delete removes an article; tag relations and analytics cascade
func (r *articleRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// MarkPublished moves an article into published unless it already is.
// Returns false when no row changed.
func (r *articleRepo) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE articles
		SET status = 'published', published_at = COALESCE(published_at, $2), updated_at = $2
		WHERE id = $1 AND status <> 'published'
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// List returns one page of articles matching the filter
func (r *articleRepo) List(ctx context.Context, filter *models.ArticleFilter) ([]*models.Article, error) {
	query, args := buildArticleListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := make([]*models.Article, 0, filter.Limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// CountFiltered returns the number of articles matching the filter
func (r *articleRepo) CountFiltered(ctx context.Context, filter *models.ArticleFilter) (int, error) {
	query, args := buildArticleCountQuery(filter)

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// IncrementViews adds one to view_count. Returns false if the article does not exist.
func (r *articleRepo) IncrementViews(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE articles SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// ListDueScheduled returns scheduled articles whose publish time has passed
func (r *articleRepo) ListDueScheduled(ctx context.Context, before time.Time, limit int) ([]*models.Article, error) {
	query := `
		SELECT id, project_id, author_id, title, slug, scheduled_at
		FROM articles
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at, id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		var article models.Article
		var scheduledAt sql.NullTime
		if err := rows.Scan(
			&article.ID, &article.ProjectID, &article.AuthorID,
			&article.Title, &article.Slug, &scheduledAt,
		); err != nil {
			return nil, err
		}
		article.Status = models.StatusScheduled
		article.ScheduledAt = timePtr(scheduledAt)
		articles = append(articles, &article)
	}
	return articles, rows.Err()
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// StreamAll streams every article matching the filter for export, ignoring paging
func (r *articleRepo) StreamAll(ctx context.Context, filter *models.ArticleFilter, callback func(*models.Article) error) error {
	where, args := articleFilterWhere(filter)
	query := articleSelect + where + articleGroupBy + articleOrderBy(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(article); err != nil {
			return err
		}
	}

	return rows.Err()
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
