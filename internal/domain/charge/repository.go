package charge

import (
	"context"

	"github.com/cloudnet/billing/internal/types"
)

// Repository defines the interface for ledger entry persistence.
// Entries are append-only; there is deliberately no update or delete.
type Repository interface {
	Create(ctx context.Context, charge *Charge) error
	Get(ctx context.Context, id string) (*Charge, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Charge, error)
	ListByAccount(ctx context.Context, accountID string) ([]*Charge, error)
	// SumForInvoice returns the total of all entries referencing the
	// invoice, for ledger invariant checks.
	SumForInvoice(ctx context.Context, invoiceID string) (types.Millicents, error)
}

// AuthorizationRepository persists the two-phase gateway charge state.
type AuthorizationRepository interface {
	Create(ctx context.Context, auth *Authorization) error
	Get(ctx context.Context, id string) (*Authorization, error)
	Update(ctx context.Context, auth *Authorization) error
	// ListOpen returns authorizations still awaiting capture, oldest
	// first, for the reconciliation sweep.
	ListOpen(ctx context.Context) ([]*Authorization, error)
}
