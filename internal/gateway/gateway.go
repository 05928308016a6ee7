package gateway

import (
	"context"

	"github.com/cloudnet/billing/internal/types"
)

// Client is the two-phase card charge protocol against the external
// payment processor. Authorize reserves funds and returns the gateway
// charge id; Capture finalizes a previously authorized charge. Both
// calls are synchronous single round-trips with no internal retry;
// retry is a caller policy. A capture timeout is indistinguishable
// from a capture failure and callers must keep the authorization
// recorded either way.
type Client interface {
	Authorize(ctx context.Context, merchantID, cardToken string, amount types.Cents) (chargeID string, err error)
	Capture(ctx context.Context, chargeID, description string) error
}
