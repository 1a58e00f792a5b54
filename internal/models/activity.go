package models

import (
	"encoding/json"
	"time"
)

// ActivityAction is the verb recorded in the audit log
type ActivityAction string

const (
	ActionCreate  ActivityAction = "create"
	ActionUpdate  ActivityAction = "update"
	ActionDelete  ActivityAction = "delete"
	ActionPublish ActivityAction = "publish"
)

// EntityArticle is the audit entity type for articles
const EntityArticle = "article"

// ActivityLog is an append-only audit record
type ActivityLog struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	Action     ActivityAction  `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	OldValues  json.RawMessage `json:"old_values,omitempty" db:"old_values"`
	NewValues  json.RawMessage `json:"new_values,omitempty" db:"new_values"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
