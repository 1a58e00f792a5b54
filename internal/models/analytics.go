package models

import (
	"time"
)

// ArticleAnalytics accumulates views for one article on one day
type ArticleAnalytics struct {
	ArticleID   string    `json:"article_id" db:"article_id"`
	Date        time.Time `json:"date" db:"date"`
	Views       int       `json:"views" db:"views"`
	UniqueViews int       `json:"unique_views" db:"unique_views"`
}

// ViewEvent describes a single tracked view
type ViewEvent struct {
	Source    string `json:"source,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
}
