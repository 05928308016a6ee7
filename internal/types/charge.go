package types

// ChargeSourceType identifies the funding source of a ledger entry.
type ChargeSourceType string

const (
	ChargeSourceCreditNote  ChargeSourceType = "credit_note"
	ChargeSourceBillingCard ChargeSourceType = "billing_card"
)

func (t ChargeSourceType) Validate() bool {
	switch t {
	case ChargeSourceCreditNote, ChargeSourceBillingCard:
		return true
	}
	return false
}

// AuthorizationStatus tracks a gateway charge across its two phases.
// The record is persisted as authorized before capture is attempted,
// so a crash between the two calls is detectable on restart.
type AuthorizationStatus string

const (
	AuthorizationStatusAuthorized    AuthorizationStatus = "authorized"
	AuthorizationStatusCaptured      AuthorizationStatus = "captured"
	AuthorizationStatusCaptureFailed AuthorizationStatus = "capture_failed"
)

// AuthorizationPurpose says what a captured charge pays for. The
// reconciliation sweep uses it to complete a recovered capture the
// right way: a settlement fans out to invoice ledger entries, a top-up
// credits the account balance.
type AuthorizationPurpose string

const (
	AuthorizationPurposeSettlement AuthorizationPurpose = "invoice_settlement"
	AuthorizationPurposeTopUp      AuthorizationPurpose = "balance_topup"
)
