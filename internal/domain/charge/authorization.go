package charge

import (
	"time"

	"github.com/cloudnet/billing/internal/types"
)

// Authorization records a gateway charge across its two phases. It is
// persisted with status authorized as soon as the authorize call
// returns and before capture is attempted, so a crash or timeout
// between the two leaves a detectable open authorization instead of a
// silently lost reservation. The reconciliation sweep picks those up
// on restart.
type Authorization struct {
	ID              string                    `db:"id" json:"id"`
	AccountID       string                    `db:"account_id" json:"account_id"`
	CardID          string                    `db:"card_id" json:"card_id"`
	AmountCents     types.Cents               `db:"amount_cents" json:"amount_cents"`
	GatewayChargeID string                    `db:"gateway_charge_id" json:"gateway_charge_id"`
	Description     string                    `db:"description" json:"description"`
	AuthStatus      types.AuthorizationStatus `db:"auth_status" json:"auth_status"`
	// Purpose routes recovered captures: settlements fan out to their
	// invoice batch, top-ups credit the account balance.
	Purpose types.AuthorizationPurpose `db:"purpose" json:"purpose"`
	// InvoiceIDs is the charge batch this authorization covers. Empty
	// for top-ups.
	InvoiceIDs   []string   `db:"invoice_ids" json:"invoice_ids"`
	CapturedAt   *time.Time `db:"captured_at" json:"captured_at,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`

	types.BaseModel
}

// Open reports whether the authorization still awaits capture.
func (a *Authorization) Open() bool {
	return a.AuthStatus == types.AuthorizationStatusAuthorized
}

// TableName returns the table name for the authorization
func (a *Authorization) TableName() string {
	return "card_authorizations"
}
