package account

import (
	"github.com/shopspring/decimal"

	"github.com/cloudnet/billing/internal/types"
)

// Account owns invoices, credit notes, billing cards and payment
// receipts, and carries the pay-as-you-go balance derived from
// receipts minus consumption.
type Account struct {
	ID string `db:"id" json:"id"`
	// GatewayID is the customer identifier assigned by the payment
	// processor, passed on every authorize call.
	GatewayID string `db:"gateway_id" json:"gateway_id"`
	// MaxmindExempt accounts skip fraud scoring entirely and are
	// always assessed safe.
	MaxmindExempt bool    `db:"maxmind_exempt" json:"maxmind_exempt"`
	CompanyName   string  `db:"company_name" json:"company_name"`
	VATNumber     *string `db:"vat_number" json:"vat_number,omitempty"`
	Address1      string  `db:"address1" json:"address1"`
	Address2      *string `db:"address2" json:"address2,omitempty"`
	City          string  `db:"city" json:"city"`
	Country       string  `db:"country" json:"country"`
	Postal        string  `db:"postal" json:"postal"`
	// CouponPercentage is the discount percentage of the coupon
	// attached to the account, 0 when none. Coupon application logic
	// lives elsewhere; settlement only reads the value.
	CouponPercentage decimal.Decimal `db:"coupon_percentage" json:"coupon_percentage"`

	PaygBalance     types.Millicents `db:"payg_balance" json:"payg_balance"`
	UsedPaygBalance types.Millicents `db:"used_payg_balance" json:"used_payg_balance"`

	types.BaseModel
}

// AvailablePaygBalance is the spendable remainder of the PAYG balance.
func (a *Account) AvailablePaygBalance() types.Millicents {
	available := a.PaygBalance - a.UsedPaygBalance
	if available < 0 {
		return 0
	}
	return available
}

// CouponMultiplier returns the factor applied to costs for accounts
// holding a percentage coupon, e.g. 0.8 for a 20% coupon.
func (a *Account) CouponMultiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(a.CouponPercentage.Div(decimal.NewFromInt(100)))
}
