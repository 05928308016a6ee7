package creditnote

import (
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// CreditNote is a pre-existing credit balance owned by an account.
// Its remaining cost is only ever decremented here, by allocation
// against invoices; issuance happens elsewhere.
type CreditNote struct {
	ID            string           `db:"id" json:"id"`
	AccountID     string           `db:"account_id" json:"account_id"`
	CreditNumber  string           `db:"credit_number" json:"credit_number"`
	RemainingCost types.Millicents `db:"remaining_cost" json:"remaining_cost"`

	types.BaseModel
}

// Consume decrements the note's remaining cost by the applied amount.
// A note can never go negative; an attempt to over-consume is an
// invariant breach, not a clamp.
func (n *CreditNote) Consume(amount types.Millicents) error {
	if amount <= 0 {
		return ierr.NewError("allocation amount must be positive").
			WithHint("Allocation amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if amount > n.RemainingCost {
		return ierr.NewError("allocation exceeds credit note balance").
			WithReportableDetails(map[string]any{
				"credit_note_id": n.ID,
				"amount":         amount,
				"remaining_cost": n.RemainingCost,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	n.RemainingCost -= amount
	return nil
}

// Usable reports whether the note can still fund an allocation.
func (n *CreditNote) Usable() bool {
	return n.RemainingCost > 0
}

// TableName returns the table name for the credit note
func (n *CreditNote) TableName() string {
	return "credit_notes"
}
