package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/account"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// InMemoryAccountStore implements account.Repository
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore[*account.Account](),
	}
}

// CreateAccount seeds an account; production code never creates
// accounts through this repository.
func (s *InMemoryAccountStore) CreateAccount(ctx context.Context, a *account.Account) error {
	copied := *a
	return s.InMemoryStore.Create(ctx, a.ID, &copied)
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("account not found").
			WithHintf("Account with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *a
	return &copied, nil
}

func (s *InMemoryAccountStore) Update(ctx context.Context, a *account.Account) error {
	copied := *a
	if err := s.InMemoryStore.Update(ctx, a.ID, &copied); err != nil {
		return ierr.NewError("account not found").
			WithHintf("Account with ID %s was not found", a.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryAccountStore) CreditPaygBalance(ctx context.Context, id string, value types.Millicents) error {
	if value <= 0 {
		return ierr.NewError("invalid credit value").
			WithHint("Balance credit must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	a.PaygBalance += value
	return s.Update(ctx, a)
}
