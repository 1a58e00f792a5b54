package models

import (
	"strings"
	"time"
)

// ArticleStatus is the lifecycle state of an article
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusScheduled ArticleStatus = "scheduled"
	StatusArchived  ArticleStatus = "archived"
)

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[ArticleStatus]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusScheduled: true,
	StatusArchived:  true,
}

// WordsPerMinute is the reading speed used for reading time estimates
const WordsPerMinute = 200

// ReadingTime estimates minutes to read content: ceil(words / WordsPerMinute)
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// Article represents a content document owned by a project
type Article struct {
	ID             string        `json:"id" db:"id"`
	ProjectID      string        `json:"project_id" db:"project_id"`
	AuthorID       string        `json:"author_id" db:"author_id"`
	Title          string        `json:"title" db:"title"`
	Slug           string        `json:"slug" db:"slug"`
	Excerpt        *string       `json:"excerpt" db:"excerpt"`
	Content        string        `json:"content" db:"content"`
	Category       *string       `json:"category" db:"category"`
	Status         ArticleStatus `json:"status" db:"status"`
	Featured       bool          `json:"featured" db:"featured"`
	CoverImage     *string       `json:"cover_image" db:"cover_image"`
	SEOTitle       *string       `json:"seo_title" db:"seo_title"`
	SEODescription *string       `json:"seo_description" db:"seo_description"`
	ReadingTime    int           `json:"reading_time" db:"reading_time"`
	ViewCount      int           `json:"view_count" db:"view_count"`
	LikeCount      int           `json:"like_count" db:"like_count"`
	PublishedAt    *time.Time    `json:"published_at" db:"published_at"`
	ScheduledAt    *time.Time    `json:"scheduled_at" db:"scheduled_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`

	// Join data, read-only
	ProjectName   string   `json:"project_name,omitempty" db:"-"`
	ProjectDomain string   `json:"project_domain,omitempty" db:"-"`
	AuthorName    string   `json:"author_name,omitempty" db:"-"`
	AuthorEmail   string   `json:"author_email,omitempty" db:"-"`
	Tags          []string `json:"tags" db:"-"`
}

// CreateArticleInput is the payload for creating an article
type CreateArticleInput struct {
	ProjectID      string        `json:"project_id"`
	Title          string        `json:"title"`
	Slug           string        `json:"slug"`
	Excerpt        *string       `json:"excerpt,omitempty"`
	Content        string        `json:"content"`
	Category       *string       `json:"category,omitempty"`
	Status         ArticleStatus `json:"status,omitempty"`
	Featured       bool          `json:"featured,omitempty"`
	CoverImage     *string       `json:"cover_image,omitempty"`
	SEOTitle       *string       `json:"seo_title,omitempty"`
	SEODescription *string       `json:"seo_description,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	ScheduledAt    *time.Time    `json:"scheduled_at,omitempty"`
}

// UpdateArticleInput is a partial update. A nil field is left unchanged.
// Tags distinguishes absent (nil) from an explicit empty list, which clears all tags.
type UpdateArticleInput struct {
	Title          *string        `json:"title,omitempty"`
	Slug           *string        `json:"slug,omitempty"`
	Excerpt        *string        `json:"excerpt,omitempty"`
	Content        *string        `json:"content,omitempty"`
	Category       *string        `json:"category,omitempty"`
	Status         *ArticleStatus `json:"status,omitempty"`
	Featured       *bool          `json:"featured,omitempty"`
	CoverImage     *string        `json:"cover_image,omitempty"`
	SEOTitle       *string        `json:"seo_title,omitempty"`
	SEODescription *string        `json:"seo_description,omitempty"`
	Tags           *[]string      `json:"tags,omitempty"`
	ScheduledAt    *time.Time     `json:"scheduled_at,omitempty"`
}

// ArticleChanges is the set of columns an update writes. Built by the service
// from an UpdateArticleInput plus derived values.
type ArticleChanges struct {
	Title          *string
	Slug           *string
	Excerpt        *string
	Content        *string
	Category       *string
	Status         *ArticleStatus
	Featured       *bool
	CoverImage     *string
	SEOTitle       *string
	SEODescription *string
	ScheduledAt    *time.Time
	ReadingTime    *int
	PublishedAt    *time.Time
	UpdatedAt      time.Time
}

// ArticleFilter holds list query parameters
type ArticleFilter struct {
	ProjectID string        `form:"project_id"`
	Status    ArticleStatus `form:"status"`
	Category  string        `form:"category"`
	AuthorID  string        `form:"author_id"`
	Featured  *bool         `form:"featured"`
	Search    string        `form:"search"`
	Tags      []string      `form:"tags"`
	Page      int           `form:"page"`
	Limit     int           `form:"limit"`
	Sort      string        `form:"sort"`
	Order     string        `form:"order"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// SortColumns maps accepted sort keys to their column expressions
var SortColumns = map[string]string{
	"created_at":   "a.created_at",
	"updated_at":   "a.updated_at",
	"published_at": "a.published_at",
	"title":        "a.title",
	"view_count":   "a.view_count",
}

// Normalize applies paging and sorting defaults in place
func (f *ArticleFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if _, ok := SortColumns[f.Sort]; !ok {
		f.Sort = "created_at"
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
}

// Offset returns the row offset for the current page
func (f *ArticleFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ArticleList is a page of articles
type ArticleList struct {
	Articles []*Article `json:"articles"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}
