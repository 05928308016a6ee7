package types

// ActivityKind is the audit event name recorded against an account.
type ActivityKind string

const (
	ActivityAuthCharge          ActivityKind = "auth_charge"
	ActivityCaptureCharge       ActivityKind = "capture_charge"
	ActivityAuthChargeFailed    ActivityKind = "auth_charge_failed"
	ActivityCreditCharge        ActivityKind = "credit_charge"
	ActivityCardCharge          ActivityKind = "card_charge"
	ActivityChargeCreditAccount ActivityKind = "charge_credit_account"
)
