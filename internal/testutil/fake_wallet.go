package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cloudnet/billing/internal/types"
	"github.com/cloudnet/billing/internal/wallet"
)

// FakeWallet is a scriptable wallet provider. Payments are registered
// by token; finalizing the same token repeatedly returns the same
// transaction token, mimicking a provider replaying a callback.
type FakeWallet struct {
	mu       sync.Mutex
	payments map[string]*wallet.Details
	finals   map[string]string // token -> transaction token
	seq      int

	FetchErr    error
	FinalizeErr error
}

var _ wallet.Provider = (*FakeWallet)(nil)

func NewFakeWallet() *FakeWallet {
	return &FakeWallet{
		payments: make(map[string]*wallet.Details),
		finals:   make(map[string]string),
	}
}

// RegisterPayment seeds a pending payment for the given token.
func (w *FakeWallet) RegisterPayment(token string, amount decimal.Decimal, payerID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.payments[token] = &wallet.Details{Amount: amount, PayerID: payerID}
}

func (w *FakeWallet) FetchDetails(ctx context.Context, token string) (*wallet.Details, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.FetchErr != nil {
		return nil, w.FetchErr
	}
	details, ok := w.payments[token]
	if !ok {
		return nil, fmt.Errorf("unknown checkout token %s", token)
	}
	copied := *details
	return &copied, nil
}

func (w *FakeWallet) Finalize(ctx context.Context, token, payerID string, amount decimal.Decimal) (*wallet.Finalization, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.FinalizeErr != nil {
		return nil, w.FinalizeErr
	}
	if _, ok := w.payments[token]; !ok {
		return nil, fmt.Errorf("unknown checkout token %s", token)
	}

	txn, ok := w.finals[token]
	if !ok {
		w.seq++
		txn = fmt.Sprintf("txn_fake_%04d", w.seq)
		w.finals[token] = txn
	}
	return &wallet.Finalization{
		TransactionToken: txn,
		Raw: types.Metadata{
			"token":    token,
			"payer_id": payerID,
			"amount":   amount.String(),
		},
	}, nil
}
