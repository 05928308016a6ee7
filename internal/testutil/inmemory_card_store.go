package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// InMemoryCardStore implements card.Repository
type InMemoryCardStore struct {
	*InMemoryStore[*card.BillingCard]
}

func NewInMemoryCardStore() *InMemoryCardStore {
	return &InMemoryCardStore{
		InMemoryStore: NewInMemoryStore[*card.BillingCard](),
	}
}

func (s *InMemoryCardStore) Create(ctx context.Context, c *card.BillingCard) error {
	if err := c.Validate(); err != nil {
		return err
	}
	copied := *c
	return s.InMemoryStore.Create(ctx, c.ID, &copied)
}

func (s *InMemoryCardStore) Get(ctx context.Context, id string) (*card.BillingCard, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || c == nil || c.Status == types.StatusDeleted {
		return nil, ierr.NewError("billing card not found").
			WithHintf("Billing card with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

func (s *InMemoryCardStore) Update(ctx context.Context, c *card.BillingCard) error {
	copied := *c
	if err := s.InMemoryStore.Update(ctx, c.ID, &copied); err != nil {
		return ierr.NewError("billing card not found").
			WithHintf("Billing card with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCardStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Status = types.StatusDeleted
	c.Primary = false
	return s.Update(ctx, c)
}

func (s *InMemoryCardStore) ListByAccount(ctx context.Context, accountID string) ([]*card.BillingCard, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, c *card.BillingCard) bool {
			return c.AccountID == accountID && c.Status != types.StatusDeleted
		},
		func(i, j *card.BillingCard) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*card.BillingCard, 0, len(items))
	for _, c := range items {
		copied := *c
		result = append(result, &copied)
	}
	return result, nil
}

func (s *InMemoryCardStore) GetPrimary(ctx context.Context, accountID string) (*card.BillingCard, error) {
	cards, err := s.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.Primary {
			return c, nil
		}
	}
	return nil, ierr.NewError("no primary billing card").
		WithHint("Account has no primary billing card").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryCardStore) ClearPrimary(ctx context.Context, accountID string) error {
	cards, err := s.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if c.Primary {
			c.Primary = false
			if err := s.Update(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}
