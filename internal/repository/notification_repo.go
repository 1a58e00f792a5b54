package repository

import (
	"context"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
	"github.com/lib/pq"
)

type notificationRepo struct {
	db *database.DB
}

// NewNotificationRepo creates a new notification repository
func NewNotificationRepo(db *database.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

// CreateBatch inserts all notifications in one statement by unnesting parallel arrays
func (r *notificationRepo) CreateBatch(ctx context.Context, notifications []*models.Notification) (int, error) {
	if len(notifications) == 0 {
		return 0, nil
	}

	n := len(notifications)
	ids := make([]string, n)
	userIDs := make([]string, n)
	titles := make([]string, n)
	messages := make([]string, n)
	types := make([]string, n)
	categories := make([]string, n)
	links := make([]string, n)
	for i, note := range notifications {
		ids[i] = note.ID
		userIDs[i] = note.UserID
		titles[i] = note.Title
		messages[i] = note.Message
		types[i] = note.Type
		categories[i] = note.Category
		links[i] = note.Link
	}

	query := `
		INSERT INTO notifications (id, user_id, title, message, type, category, link, read, created_at)
		SELECT id, user_id, title, message, type, category, link, FALSE, $8
		FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[])
			AS n(id, user_id, title, message, type, category, link)
	`
	result, err := r.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(userIDs), pq.Array(titles), pq.Array(messages),
		pq.Array(types), pq.Array(categories), pq.Array(links),
		notifications[0].CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	inserted, err := result.RowsAffected()
	return int(inserted), err
}
