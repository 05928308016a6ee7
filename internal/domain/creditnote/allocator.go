package creditnote

import (
	"github.com/cloudnet/billing/internal/types"
)

// Allocation is one credit note's contribution toward a target amount.
type Allocation struct {
	NoteID string
	Amount types.Millicents
}

// Allocate walks the notes in the given order (callers pass oldest
// usable note first) and assigns each one min(balance, unmet) until
// the target is met or the notes run out. The allocations sum to
// min(target, total available). Notes are not mutated; applying the
// allocations is the caller's transactional concern, which keeps this
// safe to run before a card charge that may still fail.
func Allocate(target types.Millicents, notes []*CreditNote) []Allocation {
	allocations := make([]Allocation, 0, len(notes))
	if target <= 0 {
		return allocations
	}

	unmet := target
	for _, note := range notes {
		if unmet == 0 {
			break
		}
		if !note.Usable() {
			continue
		}

		applied := note.RemainingCost
		if applied > unmet {
			applied = unmet
		}
		allocations = append(allocations, Allocation{NoteID: note.ID, Amount: applied})
		unmet -= applied
	}

	return allocations
}

// Total sums the applied amounts of a set of allocations.
func Total(allocations []Allocation) types.Millicents {
	var total types.Millicents
	for _, a := range allocations {
		total += a.Amount
	}
	return total
}
