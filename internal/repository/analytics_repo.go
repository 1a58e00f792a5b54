package repository

import (
	"context"
	"time"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
)

type analyticsRepo struct {
	db *database.DB
}

// NewAnalyticsRepo creates a new article analytics repository
func NewAnalyticsRepo(db *database.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

// RecordView upserts the day's row, adding one view and one unique view when unique is set
func (r *analyticsRepo) RecordView(ctx context.Context, articleID string, day time.Time, unique bool) error {
	uniqueInc := 0
	if unique {
		uniqueInc = 1
	}

	query := `
		INSERT INTO article_analytics (article_id, date, views, unique_views)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (article_id, date) DO UPDATE SET
			views = article_analytics.views + 1,
			unique_views = article_analytics.unique_views + EXCLUDED.unique_views
	`
	_, err := r.db.ExecContext(ctx, query, articleID, day.UTC().Format("2006-01-02"), uniqueInc)
	return err
}

// ListDaily returns the article's rows between from and to inclusive, oldest first
func (r *analyticsRepo) ListDaily(ctx context.Context, articleID string, from, to time.Time) ([]*models.ArticleAnalytics, error) {
	query := `
		SELECT article_id, date, views, unique_views
		FROM article_analytics
		WHERE article_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`
	rows, err := r.db.QueryContext(ctx, query, articleID,
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []*models.ArticleAnalytics{}
	for rows.Next() {
		var day models.ArticleAnalytics
		if err := rows.Scan(&day.ArticleID, &day.Date, &day.Views, &day.UniqueViews); err != nil {
			return nil, err
		}
		days = append(days, &day)
	}
	return days, rows.Err()
}
