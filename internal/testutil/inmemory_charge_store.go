package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/charge"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// InMemoryChargeStore implements charge.Repository
type InMemoryChargeStore struct {
	*InMemoryStore[*charge.Charge]
}

func NewInMemoryChargeStore() *InMemoryChargeStore {
	return &InMemoryChargeStore{
		InMemoryStore: NewInMemoryStore[*charge.Charge](),
	}
}

func (s *InMemoryChargeStore) Create(ctx context.Context, c *charge.Charge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	copied := *c
	return s.InMemoryStore.Create(ctx, c.ID, &copied)
}

func (s *InMemoryChargeStore) Get(ctx context.Context, id string) (*charge.Charge, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("charge not found").
			WithHintf("Charge with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (s *InMemoryChargeStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*charge.Charge, error) {
	return s.list(ctx, func(c *charge.Charge) bool { return c.InvoiceID == invoiceID })
}

func (s *InMemoryChargeStore) ListByAccount(ctx context.Context, accountID string) ([]*charge.Charge, error) {
	return s.list(ctx, func(c *charge.Charge) bool { return c.AccountID == accountID })
}

func (s *InMemoryChargeStore) SumForInvoice(ctx context.Context, invoiceID string) (types.Millicents, error) {
	charges, err := s.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	var sum types.Millicents
	for _, c := range charges {
		sum += c.Amount
	}
	return sum, nil
}

func (s *InMemoryChargeStore) list(ctx context.Context, match func(*charge.Charge) bool) ([]*charge.Charge, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, c *charge.Charge) bool { return match(c) },
		func(i, j *charge.Charge) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*charge.Charge, 0, len(items))
	for _, c := range items {
		copied := *c
		result = append(result, &copied)
	}
	return result, nil
}

// InMemoryAuthorizationStore implements charge.AuthorizationRepository
type InMemoryAuthorizationStore struct {
	*InMemoryStore[*charge.Authorization]
}

func NewInMemoryAuthorizationStore() *InMemoryAuthorizationStore {
	return &InMemoryAuthorizationStore{
		InMemoryStore: NewInMemoryStore[*charge.Authorization](),
	}
}

func (s *InMemoryAuthorizationStore) Create(ctx context.Context, auth *charge.Authorization) error {
	copied := *auth
	return s.InMemoryStore.Create(ctx, auth.ID, &copied)
}

func (s *InMemoryAuthorizationStore) Get(ctx context.Context, id string) (*charge.Authorization, error) {
	auth, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("card authorization not found").
			WithHintf("Card authorization with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *auth
	return &copied, nil
}

func (s *InMemoryAuthorizationStore) Update(ctx context.Context, auth *charge.Authorization) error {
	copied := *auth
	if err := s.InMemoryStore.Update(ctx, auth.ID, &copied); err != nil {
		return ierr.NewError("card authorization not found").
			WithHintf("Card authorization with ID %s was not found", auth.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryAuthorizationStore) ListOpen(ctx context.Context) ([]*charge.Authorization, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, auth *charge.Authorization) bool { return auth.Open() },
		func(i, j *charge.Authorization) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*charge.Authorization, 0, len(items))
	for _, auth := range items {
		copied := *auth
		result = append(result, &copied)
	}
	return result, nil
}
