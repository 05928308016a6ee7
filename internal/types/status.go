package types

// Status is a type for the lifecycle status of a persisted resource.
// Deleted rows are soft-deleted and excluded from queries by default.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
