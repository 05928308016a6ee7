package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/activity"
)

// InMemoryActivityStore implements activity.Repository
type InMemoryActivityStore struct {
	*InMemoryStore[*activity.Activity]
}

func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{
		InMemoryStore: NewInMemoryStore[*activity.Activity](),
	}
}

func (s *InMemoryActivityStore) Create(ctx context.Context, a *activity.Activity) error {
	copied := *a
	return s.InMemoryStore.Create(ctx, a.ID, &copied)
}

func (s *InMemoryActivityStore) ListByAccount(ctx context.Context, accountID string) ([]*activity.Activity, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, a *activity.Activity) bool { return a.AccountID == accountID },
		func(i, j *activity.Activity) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*activity.Activity, 0, len(items))
	for _, a := range items {
		copied := *a
		result = append(result, &copied)
	}
	return result, nil
}
