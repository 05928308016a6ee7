package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToCentsRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name string
		in   Millicents
		want Cents
	}{
		{"exact cent", 1_000, 1},
		{"exact dollar", 100_000, 100},
		{"below half rounds down", 1_499, 1},
		{"half rounds up", 1_500, 2},
		{"above half rounds up", 1_501, 2},
		{"sub-cent remainder alone rounds to zero", 499, 0},
		{"sub-cent half rounds to one", 500, 1},
		{"zero", 0, 0},
		{"negative rounds away from zero", -1_500, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.ToCents())
		})
	}
}

func TestIsPositiveCents(t *testing.T) {
	assert.False(t, Millicents(0).IsPositiveCents())
	assert.False(t, Millicents(499).IsPositiveCents())
	assert.True(t, Millicents(500).IsPositiveCents())
	assert.True(t, Millicents(1_000).IsPositiveCents())
}

func TestDecimalRoundTrip(t *testing.T) {
	m := Millicents(1_234_567)
	d := m.Decimal()
	assert.Equal(t, "12.34567", d.String())
	assert.Equal(t, m, MillicentsFromDollars(d))
}

func TestMillicentsFromDollars(t *testing.T) {
	assert.Equal(t, Millicents(2_550_000), MillicentsFromDollars(decimal.RequireFromString("25.50")))
	assert.Equal(t, Millicents(1), MillicentsFromDollars(decimal.RequireFromString("0.00001")))
	// Half-up on sub-millicent fractions
	assert.Equal(t, Millicents(1), MillicentsFromDollars(decimal.RequireFromString("0.000005")))
}

func TestDollarUnitConversions(t *testing.T) {
	assert.Equal(t, Millicents(500_000), MillicentsFromDollarUnits(5))
	assert.Equal(t, Cents(500), CentsFromDollarUnits(5))
}
