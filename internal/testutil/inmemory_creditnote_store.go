package testutil

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/creditnote"
	ierr "github.com/cloudnet/billing/internal/errors"
)

// InMemoryCreditNoteStore implements creditnote.Repository
type InMemoryCreditNoteStore struct {
	*InMemoryStore[*creditnote.CreditNote]
}

func NewInMemoryCreditNoteStore() *InMemoryCreditNoteStore {
	return &InMemoryCreditNoteStore{
		InMemoryStore: NewInMemoryStore[*creditnote.CreditNote](),
	}
}

func (s *InMemoryCreditNoteStore) Create(ctx context.Context, note *creditnote.CreditNote) error {
	copied := *note
	return s.InMemoryStore.Create(ctx, note.ID, &copied)
}

func (s *InMemoryCreditNoteStore) Get(ctx context.Context, id string) (*creditnote.CreditNote, error) {
	note, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("credit note not found").
			WithHintf("Credit note with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *note
	return &copied, nil
}

func (s *InMemoryCreditNoteStore) Update(ctx context.Context, note *creditnote.CreditNote) error {
	if note.RemainingCost < 0 {
		return ierr.NewError("credit note balance out of range").
			WithReportableDetails(map[string]any{"credit_note_id": note.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	copied := *note
	if err := s.InMemoryStore.Update(ctx, note.ID, &copied); err != nil {
		return ierr.NewError("credit note not found").
			WithHintf("Credit note with ID %s was not found", note.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCreditNoteStore) ListWithRemainingCost(ctx context.Context, accountID string) ([]*creditnote.CreditNote, error) {
	return s.list(ctx, func(note *creditnote.CreditNote) bool {
		return note.AccountID == accountID && note.RemainingCost > 0
	})
}

func (s *InMemoryCreditNoteStore) ListByAccount(ctx context.Context, accountID string) ([]*creditnote.CreditNote, error) {
	return s.list(ctx, func(note *creditnote.CreditNote) bool {
		return note.AccountID == accountID
	})
}

func (s *InMemoryCreditNoteStore) list(ctx context.Context, match func(*creditnote.CreditNote) bool) ([]*creditnote.CreditNote, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, note *creditnote.CreditNote) bool { return match(note) },
		func(i, j *creditnote.CreditNote) bool { return i.CreatedAt.Before(j.CreatedAt) },
	)
	if err != nil {
		return nil, err
	}
	result := make([]*creditnote.CreditNote, 0, len(items))
	for _, note := range items {
		copied := *note
		result = append(result, &copied)
	}
	return result, nil
}
