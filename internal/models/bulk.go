package models

// BulkAction is an operation applied to many articles
type BulkAction string

const (
	BulkPublish   BulkAction = "publish"
	BulkUnpublish BulkAction = "unpublish"
	BulkArchive   BulkAction = "archive"
	BulkDelete    BulkAction = "delete"
)

// ValidBulkActions defines allowed bulk actions
var ValidBulkActions = map[BulkAction]bool{
	BulkPublish:   true,
	BulkUnpublish: true,
	BulkArchive:   true,
	BulkDelete:    true,
}

// BulkRequest is the API payload for a bulk action
type BulkRequest struct {
	IDs    []string   `json:"ids"`
	Action BulkAction `json:"action"`
}

// BulkResult tallies per-item outcomes of a bulk action
type BulkResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}
