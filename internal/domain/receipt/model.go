package receipt

import (
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// PaymentReceipt records money added to an account's PAYG balance.
// Reference is the external transaction identifier (gateway charge id
// or wallet transaction token) and is unique: a retried or replayed
// top-up callback must find the existing receipt rather than create a
// second one.
type PaymentReceipt struct {
	ID            string              `db:"id" json:"id"`
	AccountID     string              `db:"account_id" json:"account_id"`
	ReceiptNumber string              `db:"receipt_number" json:"receipt_number"`
	Value         types.Millicents    `db:"value" json:"value"`
	FundingMethod types.FundingMethod `db:"funding_method" json:"funding_method"`
	Reference     string              `db:"reference" json:"reference"`
	Metadata      types.Metadata      `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

// Validate validates the payment receipt
func (r *PaymentReceipt) Validate() error {
	if r.AccountID == "" {
		return ierr.NewError("invalid account id").
			WithHint("Receipt must belong to an account").
			Mark(ierr.ErrValidation)
	}
	if r.Value <= 0 {
		return ierr.NewError("invalid receipt value").
			WithHint("Receipt value must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if !r.FundingMethod.Validate() {
		return ierr.NewError("invalid funding method").
			WithHint("Funding method is invalid").
			Mark(ierr.ErrValidation)
	}
	if r.Reference == "" {
		return ierr.NewError("invalid reference").
			WithHint("Receipt must carry the external transaction reference").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TableName returns the table name for the payment receipt
func (r *PaymentReceipt) TableName() string {
	return "payment_receipts"
}
