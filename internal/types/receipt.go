package types

// FundingMethod is how money was added to an account's PAYG balance.
type FundingMethod string

const (
	FundingMethodBillingCard FundingMethod = "billing_card"
	FundingMethodPayPal      FundingMethod = "paypal"
)

func (m FundingMethod) Validate() bool {
	switch m {
	case FundingMethodBillingCard, FundingMethodPayPal:
		return true
	}
	return false
}
