package charge

import (
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// Charge is an immutable ledger entry applying a funding source (a
// credit note or a billing card) to an invoice. Entries are created
// only by successful settlement steps and never updated or deleted.
// The sum of entries for an invoice never exceeds its total cost.
type Charge struct {
	ID         string                 `db:"id" json:"id"`
	AccountID  string                 `db:"account_id" json:"account_id"`
	SourceType types.ChargeSourceType `db:"source_type" json:"source_type"`
	SourceID   string                 `db:"source_id" json:"source_id"`
	InvoiceID  string                 `db:"invoice_id" json:"invoice_id"`
	Amount     types.Millicents       `db:"amount" json:"amount"`
	// Reference carries the gateway charge id for card-funded entries.
	Reference *string `db:"reference" json:"reference,omitempty"`

	types.BaseModel
}

// Validate validates the ledger entry
func (c *Charge) Validate() error {
	if !c.SourceType.Validate() {
		return ierr.NewError("invalid charge source type").
			WithHint("Charge source type is invalid").
			Mark(ierr.ErrValidation)
	}
	if c.SourceID == "" {
		return ierr.NewError("invalid charge source id").
			WithHint("Charge source id is invalid").
			Mark(ierr.ErrValidation)
	}
	if c.InvoiceID == "" {
		return ierr.NewError("invalid invoice id").
			WithHint("Charge must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if c.Amount <= 0 {
		return ierr.NewError("invalid charge amount").
			WithHint("Charge amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the charge
func (c *Charge) TableName() string {
	return "charges"
}
