package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cloudnet/billing/internal/types"
)

// Details is what the wallet provider knows about a pending payment
// identified by its redirect token.
type Details struct {
	// Amount is the payment total in dollars as reported by the
	// provider.
	Amount  decimal.Decimal
	PayerID string
}

// Finalization is the provider's confirmation of a completed payment.
// TransactionToken is the external reference the payment receipt is
// keyed by.
type Finalization struct {
	TransactionToken string
	Raw              types.Metadata
}

// Provider is the asynchronous redirect-based wallet flow: the payer
// approves on the provider's site and returns with a token, then the
// reconciler fetches the details and finalizes the payment. Callbacks
// may be replayed; dedup is the caller's concern, keyed on the
// finalization's transaction token.
type Provider interface {
	FetchDetails(ctx context.Context, token string) (*Details, error)
	Finalize(ctx context.Context, token, payerID string, amount decimal.Decimal) (*Finalization, error)
}
