package creditnote

import (
	"context"
)

// Repository defines the interface for credit note persistence
type Repository interface {
	Create(ctx context.Context, note *CreditNote) error
	Get(ctx context.Context, id string) (*CreditNote, error)
	Update(ctx context.Context, note *CreditNote) error
	// ListWithRemainingCost returns the account's notes that still
	// carry a balance, oldest first in the order the allocator consumes
	// them in.
	ListWithRemainingCost(ctx context.Context, accountID string) ([]*CreditNote, error)
	ListByAccount(ctx context.Context, accountID string) ([]*CreditNote, error)
}
