package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crm-content-api/internal/models"
	"github.com/lib/pq"
)

// articleSelect reads an article with its project/author join data and its
// tag names in attach order. Callers append a WHERE clause, then articleGroupBy.
const articleSelect = `
	SELECT a.id, a.project_id, a.author_id, a.title, a.slug, a.excerpt, a.content, a.category,
		a.status, a.featured, a.cover_image, a.seo_title, a.seo_description, a.reading_time,
		a.view_count, a.like_count, a.published_at, a.scheduled_at, a.created_at, a.updated_at,
		COALESCE(p.name, ''), COALESCE(p.domain, ''), COALESCE(u.name, ''), COALESCE(u.email, ''),
		COALESCE(array_agg(t.name ORDER BY rel.position) FILTER (WHERE t.id IS NOT NULL), '{}')
	FROM articles a
	LEFT JOIN projects p ON p.id = a.project_id
	LEFT JOIN users u ON u.id = a.author_id
	LEFT JOIN article_tags rel ON rel.article_id = a.id
	LEFT JOIN tags t ON t.id = rel.tag_id`

const articleGroupBy = `
	GROUP BY a.id, p.name, p.domain, u.name, u.email`

// likeEscaper escapes LIKE wildcards in user search input
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// articleFilterWhere builds the shared predicate for list, count and export.
// Every value is bound as a parameter.
func articleFilterWhere(f *models.ArticleFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ProjectID != "" {
		add("a.project_id = $%d", f.ProjectID)
	}
	if f.Status != "" {
		add("a.status = $%d", string(f.Status))
	}
	if f.Category != "" {
		add("a.category = $%d", f.Category)
	}
	if f.AuthorID != "" {
		add("a.author_id = $%d", f.AuthorID)
	}
	if f.Featured != nil {
		add("a.featured = $%d", *f.Featured)
	}
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(a.title ILIKE $%d OR a.excerpt ILIKE $%d OR a.content ILIKE $%d)", n, n, n))
	}
	if len(f.Tags) > 0 {
		// any listed tag qualifies the article
		add(`a.id IN (
			SELECT ft.article_id FROM article_tags ft
			JOIN tags ftt ON ftt.id = ft.tag_id
			WHERE ftt.name = ANY($%d))`, pq.Array(f.Tags))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}

// articleOrderBy renders the ORDER BY clause from the allow-listed sort key
func articleOrderBy(f *models.ArticleFilter) string {
	column, ok := models.SortColumns[f.Sort]
	if !ok {
		column = models.SortColumns["created_at"]
	}
	direction := "DESC"
	if f.Order == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf("\n\tORDER BY %s %s NULLS LAST, a.id %s", column, direction, direction)
}

// buildArticleListQuery returns the paged list query for a normalized filter
func buildArticleListQuery(f *models.ArticleFilter) (string, []interface{}) {
	where, args := articleFilterWhere(f)
	args = append(args, f.Limit, f.Offset())
	query := articleSelect + where + articleGroupBy + articleOrderBy(f) +
		fmt.Sprintf("\n\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return query, args
}

// buildArticleCountQuery returns the total-count query for the same predicate
func buildArticleCountQuery(f *models.ArticleFilter) (string, []interface{}) {
	where, args := articleFilterWhere(f)
	return "SELECT COUNT(*) FROM articles a" + where, args
}

// buildArticleUpdate writes only the columns present in changes.
// published_at is never overwritten once set.
func buildArticleUpdate(id string, c *models.ArticleChanges) (string, []interface{}) {
	var sets []string
	var args []interface{}

	set := func(expr string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if c.Title != nil {
		set("title = $%d", *c.Title)
	}
	if c.Slug != nil {
		set("slug = $%d", *c.Slug)
	}
	if c.Excerpt != nil {
		set("excerpt = $%d", nullString(*c.Excerpt))
	}
	if c.Content != nil {
		set("content = $%d", *c.Content)
	}
	if c.Category != nil {
		set("category = $%d", nullString(*c.Category))
	}
	if c.Status != nil {
		set("status = $%d", string(*c.Status))
	}
	if c.Featured != nil {
		set("featured = $%d", *c.Featured)
	}
	if c.CoverImage != nil {
		set("cover_image = $%d", nullString(*c.CoverImage))
	}
	if c.SEOTitle != nil {
		set("seo_title = $%d", nullString(*c.SEOTitle))
	}
	if c.SEODescription != nil {
		set("seo_description = $%d", nullString(*c.SEODescription))
	}
	if c.ScheduledAt != nil {
		set("scheduled_at = $%d", *c.ScheduledAt)
	}
	if c.ReadingTime != nil {
		set("reading_time = $%d", *c.ReadingTime)
	}
	if c.PublishedAt != nil {
		set("published_at = COALESCE(published_at, $%d)", *c.PublishedAt)
	}
	set("updated_at = $%d", c.UpdatedAt)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE articles SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanArticle scans one row produced by articleSelect
func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var excerpt, category, coverImage, seoTitle, seoDescription sql.NullString
	var publishedAt, scheduledAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.ProjectID, &article.AuthorID, &article.Title, &article.Slug,
		&excerpt, &article.Content, &category, &article.Status, &article.Featured,
		&coverImage, &seoTitle, &seoDescription, &article.ReadingTime,
		&article.ViewCount, &article.LikeCount, &publishedAt, &scheduledAt,
		&article.CreatedAt, &article.UpdatedAt,
		&article.ProjectName, &article.ProjectDomain, &article.AuthorName, &article.AuthorEmail,
		pq.Array(&article.Tags),
	)
	if err != nil {
		return nil, err
	}

	article.Excerpt = stringPtr(excerpt)
	article.Category = stringPtr(category)
	article.CoverImage = stringPtr(coverImage)
	article.SEOTitle = stringPtr(seoTitle)
	article.SEODescription = stringPtr(seoDescription)
	article.PublishedAt = timePtr(publishedAt)
	article.ScheduledAt = timePtr(scheduledAt)
	if article.Tags == nil {
		article.Tags = []string{}
	}

	return &article, nil
}

// nullString converts empty strings to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func optString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return nullString(*p)
}

func optTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
