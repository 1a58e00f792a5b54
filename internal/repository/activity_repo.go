package repository

import (
	"context"

	"github.com/crm-content-api/internal/database"
	"github.com/crm-content-api/internal/models"
)

type activityRepo struct {
	db *database.DB
}

// NewActivityRepo creates a new audit log repository
func NewActivityRepo(db *database.DB) ActivityRepository {
	return &activityRepo{db: db}
}

// Log appends one audit entry
func (r *activityRepo) Log(ctx context.Context, entry *models.ActivityLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, old_values, new_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, string(entry.Action), entry.EntityType, entry.EntityID,
		jsonOrNull(entry.OldValues), jsonOrNull(entry.NewValues), entry.CreatedAt,
	)
	return err
}

// jsonOrNull passes raw JSON through as text so it casts to jsonb, or NULL when empty
func jsonOrNull(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
