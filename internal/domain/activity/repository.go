package activity

import (
	"context"
)

// Repository is the append-only audit log. Activities are never
// updated or deleted.
type Repository interface {
	Create(ctx context.Context, activity *Activity) error
	ListByAccount(ctx context.Context, accountID string) ([]*Activity, error)
}
