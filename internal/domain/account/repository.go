package account

import (
	"context"

	"github.com/cloudnet/billing/internal/types"
)

// Repository defines the interface for account persistence
type Repository interface {
	Get(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, account *Account) error
	// CreditPaygBalance adds a top-up value to the account's PAYG
	// balance.
	CreditPaygBalance(ctx context.Context, id string, value types.Millicents) error
}
