package types

// InvoiceState is the payment lifecycle state of an invoice.
// Transitions only move forward: pending -> partially_paid -> paid,
// or pending -> paid directly. A paid invoice never leaves paid.
type InvoiceState string

const (
	InvoiceStatePending       InvoiceState = "pending"
	InvoiceStatePartiallyPaid InvoiceState = "partially_paid"
	InvoiceStatePaid          InvoiceState = "paid"
)

// CanTransitionTo reports whether moving from s to target is a legal
// forward transition.
func (s InvoiceState) CanTransitionTo(target InvoiceState) bool {
	if s == target {
		return true
	}
	switch s {
	case InvoiceStatePending:
		return target == InvoiceStatePartiallyPaid || target == InvoiceStatePaid
	case InvoiceStatePartiallyPaid:
		return target == InvoiceStatePaid
	case InvoiceStatePaid:
		return false
	}
	return false
}

func (s InvoiceState) Validate() bool {
	switch s {
	case InvoiceStatePending, InvoiceStatePartiallyPaid, InvoiceStatePaid:
		return true
	}
	return false
}
