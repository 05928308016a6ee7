package creditnote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudnet/billing/internal/types"
)

func notesWithBalances(balances ...types.Millicents) []*CreditNote {
	notes := make([]*CreditNote, 0, len(balances))
	for i, b := range balances {
		notes = append(notes, &CreditNote{
			ID:            string(rune('a' + i)),
			AccountID:     "acct_1",
			RemainingCost: b,
		})
	}
	return notes
}

func TestAllocateGreedyInOrder(t *testing.T) {
	notes := notesWithBalances(5, 3, 8)

	allocations := Allocate(10, notes)

	assert.Len(t, allocations, 3)
	assert.Equal(t, types.Millicents(5), allocations[0].Amount)
	assert.Equal(t, types.Millicents(3), allocations[1].Amount)
	assert.Equal(t, types.Millicents(2), allocations[2].Amount)
	assert.Equal(t, types.Millicents(10), Total(allocations))
}

func TestAllocateStopsWhenTargetMet(t *testing.T) {
	notes := notesWithBalances(20, 5)

	allocations := Allocate(10, notes)

	assert.Len(t, allocations, 1)
	assert.Equal(t, notes[0].ID, allocations[0].NoteID)
	assert.Equal(t, types.Millicents(10), allocations[0].Amount)
}

func TestAllocatePartialWhenNotesRunOut(t *testing.T) {
	notes := notesWithBalances(4, 3)

	allocations := Allocate(100, notes)

	assert.Equal(t, types.Millicents(7), Total(allocations))
}

func TestAllocateSkipsEmptyNotes(t *testing.T) {
	notes := notesWithBalances(0, 6, 0, 6)

	allocations := Allocate(9, notes)

	assert.Len(t, allocations, 2)
	assert.Equal(t, notes[1].ID, allocations[0].NoteID)
	assert.Equal(t, notes[3].ID, allocations[1].NoteID)
	assert.Equal(t, types.Millicents(9), Total(allocations))
}

func TestAllocateZeroOrNegativeTarget(t *testing.T) {
	notes := notesWithBalances(5)

	assert.Empty(t, Allocate(0, notes))
	assert.Empty(t, Allocate(-5, notes))
}

func TestAllocateNoNotes(t *testing.T) {
	assert.Empty(t, Allocate(10, nil))
}

func TestAllocateDoesNotMutateNotes(t *testing.T) {
	notes := notesWithBalances(5, 3)

	Allocate(6, notes)

	assert.Equal(t, types.Millicents(5), notes[0].RemainingCost)
	assert.Equal(t, types.Millicents(3), notes[1].RemainingCost)
}

func TestConsume(t *testing.T) {
	note := &CreditNote{ID: "cn_1", RemainingCost: 5}

	err := note.Consume(3)
	assert.NoError(t, err)
	assert.Equal(t, types.Millicents(2), note.RemainingCost)

	err = note.Consume(3)
	assert.Error(t, err)
	assert.Equal(t, types.Millicents(2), note.RemainingCost)

	err = note.Consume(0)
	assert.Error(t, err)
}
