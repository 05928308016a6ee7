package invoice

import (
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// Invoice is a monetary document owed by an account. All costs are
// stored in millicents. RemainingCost is maintained alongside the
// ledger: it equals TotalCost minus the sum of charges referencing
// this invoice and is never negative.
type Invoice struct {
	ID            string             `db:"id" json:"id"`
	AccountID     string             `db:"account_id" json:"account_id"`
	InvoiceNumber string             `db:"invoice_number" json:"invoice_number"`
	TotalCost     types.Millicents   `db:"total_cost" json:"total_cost"`
	TaxCost       types.Millicents   `db:"tax_cost" json:"tax_cost"`
	NetCost       types.Millicents   `db:"net_cost" json:"net_cost"`
	RemainingCost types.Millicents   `db:"remaining_cost" json:"remaining_cost"`
	State         types.InvoiceState `db:"state" json:"state"`

	types.BaseModel
}

// Validate checks the invoice's internal consistency.
func (i *Invoice) Validate() error {
	if i.AccountID == "" {
		return ierr.NewError("invalid account id").
			WithHint("Invoice must belong to an account").
			Mark(ierr.ErrValidation)
	}
	if i.TotalCost < 0 {
		return ierr.NewError("invalid total cost").
			WithHint("Total cost must not be negative").
			Mark(ierr.ErrValidation)
	}
	if i.RemainingCost < 0 || i.RemainingCost > i.TotalCost {
		return ierr.NewError("remaining cost out of range").
			WithReportableDetails(map[string]any{
				"invoice_id":     i.ID,
				"total_cost":     i.TotalCost,
				"remaining_cost": i.RemainingCost,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if !i.State.Validate() {
		return ierr.NewError("invalid invoice state").
			WithHint("Invoice state is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ApplyCharge reduces the remaining cost by a ledger entry amount.
// A charge that would push the ledger sum past the invoice total
// violates the ledger invariant and is refused outright.
func (i *Invoice) ApplyCharge(amount types.Millicents) error {
	if amount <= 0 {
		return ierr.NewError("charge amount must be positive").
			WithHint("Charge amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if amount > i.RemainingCost {
		return ierr.NewError("charge exceeds remaining cost").
			WithReportableDetails(map[string]any{
				"invoice_id":     i.ID,
				"amount":         amount,
				"remaining_cost": i.RemainingCost,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	i.RemainingCost -= amount
	return nil
}

// TransitionTo moves the invoice to a new state, enforcing
// forward-only transitions.
func (i *Invoice) TransitionTo(state types.InvoiceState) error {
	if !i.State.CanTransitionTo(state) {
		return ierr.NewError("illegal invoice state transition").
			WithReportableDetails(map[string]any{
				"invoice_id": i.ID,
				"from":       i.State,
				"to":         state,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	i.State = state
	return nil
}

// TableName returns the table name for the invoice
func (i *Invoice) TableName() string {
	return "invoices"
}
