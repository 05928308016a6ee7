package card

import (
	"context"
)

// Repository defines the interface for billing card persistence.
// Soft-deleted cards are excluded from every query.
type Repository interface {
	Create(ctx context.Context, card *BillingCard) error
	Get(ctx context.Context, id string) (*BillingCard, error)
	Update(ctx context.Context, card *BillingCard) error
	Delete(ctx context.Context, id string) error
	ListByAccount(ctx context.Context, accountID string) ([]*BillingCard, error)
	// GetPrimary returns the account's primary card, or a not found
	// error when none is set.
	GetPrimary(ctx context.Context, accountID string) (*BillingCard, error)
	// ClearPrimary unsets the primary flag on every card of the
	// account. Used inside the SetPrimary transaction.
	ClearPrimary(ctx context.Context, accountID string) error
}
