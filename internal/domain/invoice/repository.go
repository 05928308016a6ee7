package invoice

import (
	"context"
)

// Repository defines the interface for invoice persistence
type Repository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, invoice *Invoice) error
	// ListDue returns the account's invoices that still carry a
	// remaining cost, oldest first.
	ListDue(ctx context.Context, accountID string) ([]*Invoice, error)
	ListByAccount(ctx context.Context, accountID string) ([]*Invoice, error)
	// ListAccountIDsDue returns the ids of accounts holding at least
	// one invoice with a remaining cost, for the settlement job.
	ListAccountIDsDue(ctx context.Context) ([]string, error)
}
