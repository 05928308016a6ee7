package risk

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/card"
)

// Score is the fraud service's verdict on a card submission. Verified
// is false when the service could not complete scoring, which leaves
// the card unassessed.
type Score struct {
	Score    float64
	Verified bool
}

// Service scores a newly submitted billing card using the request
// context captured at submission (IP, user agent, address fields on
// the card itself).
type Service interface {
	ScoreCard(ctx context.Context, billingCard *card.BillingCard) (*Score, error)
}
