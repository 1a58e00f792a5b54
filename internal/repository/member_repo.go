package repository

import (
	"context"
	"database/sql"

	"github.com/crm-content-api/internal/database"
)

// memberRepo reads project_members
type memberRepo struct {
	db *database.DB
}

// NewMemberRepo creates a new project membership repository
func NewMemberRepo(db *database.DB) MemberRepository {
	return &memberRepo{db: db}
}

// GetRole returns the user's role in the project, or "" if not a member
func (r *memberRepo) GetRole(ctx context.Context, projectID, userID string) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		"SELECT role FROM project_members WHERE project_id = $1 AND user_id = $2",
		projectID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return role, err
}

// ListUserIDs returns the ids of all current project members
func (r *memberRepo) ListUserIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY user_id", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
