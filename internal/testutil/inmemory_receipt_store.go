package testutil

import (
	"context"

	ierr "github.com/cloudnet/billing/internal/errors"

	"github.com/cloudnet/billing/internal/domain/receipt"
)

// InMemoryReceiptStore implements receipt.Repository
type InMemoryReceiptStore struct {
	*InMemoryStore[*receipt.PaymentReceipt]
}

func NewInMemoryReceiptStore() *InMemoryReceiptStore {
	return &InMemoryReceiptStore{
		InMemoryStore: NewInMemoryStore[*receipt.PaymentReceipt](),
	}
}

func (s *InMemoryReceiptStore) Create(ctx context.Context, rec *receipt.PaymentReceipt) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if existing, _ := s.GetByReference(ctx, rec.Reference); existing != nil {
		return ierr.NewError("duplicate receipt reference").
			WithReportableDetails(map[string]any{"reference": rec.Reference}).
			Mark(ierr.ErrAlreadyExists)
	}
	copied := *rec
	return s.InMemoryStore.Create(ctx, rec.ID, &copied)
}

func (s *InMemoryReceiptStore) Get(ctx context.Context, id string) (*receipt.PaymentReceipt, error) {
	rec, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("payment receipt not found").
			WithHintf("Payment receipt with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *rec
	return &copied, nil
}

func (s *InMemoryReceiptStore) GetByReference(ctx context.Context, reference string) (*receipt.PaymentReceipt, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, rec *receipt.PaymentReceipt) bool { return rec.Reference == reference },
		nil,
	)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("payment receipt not found").
			WithHintf("No payment receipt with reference %s", reference).
			Mark(ierr.ErrNotFound)
	}
	copied := *items[0]
	return &copied, nil
}

func (s *InMemoryReceiptStore) ListByAccount(ctx context.Context, accountID string) ([]*receipt.PaymentReceipt, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, rec *receipt.PaymentReceipt) bool { return rec.AccountID == accountID },
		func(i, j *receipt.PaymentReceipt) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*receipt.PaymentReceipt, 0, len(items))
	for _, rec := range items {
		copied := *rec
		result = append(result, &copied)
	}
	return result, nil
}
