package receipt

import (
	"context"
)

// Repository defines the interface for payment receipt persistence
type Repository interface {
	Create(ctx context.Context, receipt *PaymentReceipt) error
	Get(ctx context.Context, id string) (*PaymentReceipt, error)
	// GetByReference looks a receipt up by its external transaction
	// reference; returns a not found error when none exists. This is
	// the dedup point for replayed wallet callbacks.
	GetByReference(ctx context.Context, reference string) (*PaymentReceipt, error)
	ListByAccount(ctx context.Context, accountID string) ([]*PaymentReceipt, error)
}
