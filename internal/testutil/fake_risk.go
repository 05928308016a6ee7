package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/card"
	"github.com/cloudnet/billing/internal/risk"
)

// FakeRisk is a scriptable fraud scoring service. The default verdict
// is a verified score of 0.
type FakeRisk struct {
	Score    float64
	Verified bool
	Err      error
}

var _ risk.Service = (*FakeRisk)(nil)

func NewFakeRisk() *FakeRisk {
	return &FakeRisk{Verified: true}
}

func (r *FakeRisk) ScoreCard(ctx context.Context, billingCard *card.BillingCard) (*risk.Score, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return &risk.Score{Score: r.Score, Verified: r.Verified}, nil
}
