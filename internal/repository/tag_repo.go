package repository

import (
	"context"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
	"github.com/google/uuid"
)

// tagRepo is the concrete implementation of TagRepository
type tagRepo struct {
	db *database.DB
}

// NewTagRepo creates a new tag repository
func NewTagRepo(db *database.DB) TagRepository {
	return &tagRepo{db: db}
}

// ArticleTags returns the tags attached to an article in display order
func (r *tagRepo) ArticleTags(ctx context.Context, articleID string) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.usage_count, t.created_at
		FROM article_tags rel
		JOIN tags t ON t.id = rel.tag_id
		WHERE rel.article_id = $1
		ORDER BY rel.position, t.name
	`
	return r.query(ctx, query, articleID)
}

// Ensure returns the id of the tag with the given slug, creating it if needed.
// A new tag starts with usage_count 0; Attach does the counting.
func (r *tagRepo) Ensure(ctx context.Context, name, slug string) (string, error) {
	query := `
		INSERT INTO tags (id, name, slug, usage_count, created_at)
		VALUES ($1, $2, $3, 0, NOW())
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), name, slug).Scan(&id)
	return id, err
}

// Attach links a tag to an article and bumps usage_count only if the link is new
func (r *tagRepo) Attach(ctx context.Context, articleID, tagID string, position int) error {
	query := `
		WITH inserted AS (
			INSERT INTO article_tags (article_id, tag_id, position)
			VALUES ($1, $2, $3)
			ON CONFLICT (article_id, tag_id) DO NOTHING
			RETURNING tag_id
		)
		UPDATE tags SET usage_count = usage_count + 1
		WHERE id IN (SELECT tag_id FROM inserted)
	`
	_, err := r.db.ExecContext(ctx, query, articleID, tagID, position)
	return err
}

// Detach unlinks a tag from an article and decrements usage_count if a link was removed
func (r *tagRepo) Detach(ctx context.Context, articleID, tagID string) error {
	query := `
		WITH removed AS (
			DELETE FROM article_tags
			WHERE article_id = $1 AND tag_id = $2
			RETURNING tag_id
		)
		UPDATE tags SET usage_count = GREATEST(usage_count - 1, 0)
		WHERE id IN (SELECT tag_id FROM removed)
	`
	_, err := r.db.ExecContext(ctx, query, articleID, tagID)
	return err
}

// SetPosition reorders an existing link
func (r *tagRepo) SetPosition(ctx context.Context, articleID, tagID string, position int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE article_tags SET position = $3 WHERE article_id = $1 AND tag_id = $2",
		articleID, tagID, position)
	return err
}

// DetachAll removes every tag from an article, releasing their usage counts
func (r *tagRepo) DetachAll(ctx context.Context, articleID string) error {
	query := `
		WITH removed AS (
			DELETE FROM article_tags WHERE article_id = $1
			RETURNING tag_id
		)
		UPDATE tags SET usage_count = GREATEST(usage_count - 1, 0)
		WHERE id IN (SELECT tag_id FROM removed)
	`
	_, err := r.db.ExecContext(ctx, query, articleID)
	return err
}

// List returns all tags, most used first
func (r *tagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	query := `
		SELECT id, name, slug, usage_count, created_at
		FROM tags
		ORDER BY usage_count DESC, name
	`
	return r.query(ctx, query)
}

// Count returns the total number of tags
func (r *tagRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&count)
	return count, err
}

func (r *tagRepo) query(ctx context.Context, query string, args ...interface{}) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.UsageCount, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	return tags, rows.Err()
}
