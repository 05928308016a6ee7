package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/types"
)

// GatewayCall records one call made against the fake gateway.
type GatewayCall struct {
	Op          string
	MerchantID  string
	CardToken   string
	Amount      types.Cents
	ChargeID    string
	Description string
}

// FakeGateway is a scriptable gateway client. Tests set the failure
// fields to make specific phases fail; by default every call succeeds
// and charge ids are generated sequentially.
type FakeGateway struct {
	mu    sync.Mutex
	calls []GatewayCall
	seq   int

	// AuthorizeErr fails every authorize call when set.
	AuthorizeErr error
	// CaptureErr fails every capture call when set.
	CaptureErr error
	// FailCaptureOnce fails only the next capture call, then clears.
	FailCaptureOnce error
}

var _ gateway.Client = (*FakeGateway)(nil)

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (g *FakeGateway) Authorize(ctx context.Context, merchantID, cardToken string, amount types.Cents) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.AuthorizeErr != nil {
		return "", g.AuthorizeErr
	}

	g.seq++
	chargeID := fmt.Sprintf("ch_fake_%04d", g.seq)
	g.calls = append(g.calls, GatewayCall{
		Op:         "authorize",
		MerchantID: merchantID,
		CardToken:  cardToken,
		Amount:     amount,
		ChargeID:   chargeID,
	})
	return chargeID, nil
}

func (g *FakeGateway) Capture(ctx context.Context, chargeID, description string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCaptureOnce != nil {
		err := g.FailCaptureOnce
		g.FailCaptureOnce = nil
		return err
	}
	if g.CaptureErr != nil {
		return g.CaptureErr
	}

	g.calls = append(g.calls, GatewayCall{
		Op:          "capture",
		ChargeID:    chargeID,
		Description: description,
	})
	return nil
}

// Calls returns a copy of the recorded calls.
func (g *FakeGateway) Calls() []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GatewayCall, len(g.calls))
	copy(out, g.calls)
	return out
}

// CallsOf returns the recorded calls for one operation.
func (g *FakeGateway) CallsOf(op string) []GatewayCall {
	var out []GatewayCall
	for _, c := range g.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}
