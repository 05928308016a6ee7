package types

import (
	"github.com/shopspring/decimal"
)

// Millicents is the integer minor-currency unit used for every stored
// monetary amount. One cent is 1000 millicents, one dollar 100_000.
// Keeping amounts integral avoids floating point drift in ledger sums.
type Millicents int64

// Cents is the unit the payment gateway charges in.
type Cents int64

const (
	MillicentsInCent   Millicents = 1_000
	MillicentsInDollar Millicents = 100_000
	CentsInDollar      Cents      = 100
)

// ToCents converts a millicent amount to whole cents, rounding half up.
// This mirrors how gateway charge amounts are derived from ledger
// amounts, so sub-cent remainders never trigger a charge on their own.
func (m Millicents) ToCents() Cents {
	if m >= 0 {
		return Cents((m + MillicentsInCent/2) / MillicentsInCent)
	}
	return Cents((m - MillicentsInCent/2) / MillicentsInCent)
}

// IsPositiveCents reports whether the amount rounds to at least one cent.
func (m Millicents) IsPositiveCents() bool {
	return m.ToCents() > 0
}

// ToMillicents converts a cent amount back to the ledger unit.
func (c Cents) ToMillicents() Millicents {
	return Millicents(c) * MillicentsInCent
}

// Decimal returns the amount in dollars as a decimal, for display and
// for the wallet provider APIs that deal in decimal dollar amounts.
func (m Millicents) Decimal() decimal.Decimal {
	return decimal.New(int64(m), 0).Div(decimal.New(int64(MillicentsInDollar), 0))
}

// MillicentsFromDollars converts a decimal dollar amount (e.g. parsed
// from a wallet provider response) to millicents, rounding half up.
func MillicentsFromDollars(d decimal.Decimal) Millicents {
	return Millicents(d.Mul(decimal.New(int64(MillicentsInDollar), 0)).Round(0).IntPart())
}

// MillicentsFromDollarUnits converts a whole dollar denomination, such
// as a top-up amount, to millicents.
func MillicentsFromDollarUnits(dollars int64) Millicents {
	return Millicents(dollars) * MillicentsInDollar
}

// CentsFromDollarUnits converts a whole dollar denomination to cents.
func CentsFromDollarUnits(dollars int64) Cents {
	return Cents(dollars) * CentsInDollar
}
