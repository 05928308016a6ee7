package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/invoice"
	ierr "github.com/cloudnet/billing/internal/errors"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	copied := *inv
	return s.InMemoryStore.Create(ctx, inv.ID, &copied)
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *inv
	return &copied, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	copied := *inv
	if err := s.InMemoryStore.Update(ctx, inv.ID, &copied); err != nil {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) ListDue(ctx context.Context, accountID string) ([]*invoice.Invoice, error) {
	return s.list(ctx, func(inv *invoice.Invoice) bool {
		return inv.AccountID == accountID && inv.RemainingCost > 0
	})
}

func (s *InMemoryInvoiceStore) ListByAccount(ctx context.Context, accountID string) ([]*invoice.Invoice, error) {
	return s.list(ctx, func(inv *invoice.Invoice) bool {
		return inv.AccountID == accountID
	})
}

func (s *InMemoryInvoiceStore) ListAccountIDsDue(ctx context.Context) ([]string, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, inv *invoice.Invoice) bool { return inv.RemainingCost > 0 },
		nil,
	)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, inv := range items {
		if !seen[inv.AccountID] {
			seen[inv.AccountID] = true
			ids = append(ids, inv.AccountID)
		}
	}
	return ids, nil
}

func (s *InMemoryInvoiceStore) list(ctx context.Context, match func(*invoice.Invoice) bool) ([]*invoice.Invoice, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, inv *invoice.Invoice) bool { return match(inv) },
		func(i, j *invoice.Invoice) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*invoice.Invoice, 0, len(items))
	for _, inv := range items {
		copied := *inv
		result = append(result, &copied)
	}
	return result, nil
}
