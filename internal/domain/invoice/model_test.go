package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloudnet/billing/internal/types"
)

func pendingInvoice(total types.Millicents) *Invoice {
	return &Invoice{
		ID:            "inv_1",
		AccountID:     "acct_1",
		TotalCost:     total,
		NetCost:       total,
		RemainingCost: total,
		State:         types.InvoiceStatePending,
	}
}

func TestApplyChargeReducesRemaining(t *testing.T) {
	inv := pendingInvoice(10_000)

	assert.NoError(t, inv.ApplyCharge(4_000))
	assert.Equal(t, types.Millicents(6_000), inv.RemainingCost)
	assert.NoError(t, inv.ApplyCharge(6_000))
	assert.Equal(t, types.Millicents(0), inv.RemainingCost)
}

func TestApplyChargeRefusesOvercharge(t *testing.T) {
	inv := pendingInvoice(10_000)

	err := inv.ApplyCharge(10_001)
	assert.Error(t, err)
	assert.Equal(t, types.Millicents(10_000), inv.RemainingCost)
}

func TestApplyChargeRefusesNonPositive(t *testing.T) {
	inv := pendingInvoice(10_000)

	assert.Error(t, inv.ApplyCharge(0))
	assert.Error(t, inv.ApplyCharge(-5))
}

func TestTransitionForwardOnly(t *testing.T) {
	inv := pendingInvoice(10_000)

	assert.NoError(t, inv.TransitionTo(types.InvoiceStatePartiallyPaid))
	assert.NoError(t, inv.TransitionTo(types.InvoiceStatePaid))
	assert.Error(t, inv.TransitionTo(types.InvoiceStatePending))
	assert.Equal(t, types.InvoiceStatePaid, inv.State)
}

func TestValidateRemainingCostRange(t *testing.T) {
	inv := pendingInvoice(10_000)
	assert.NoError(t, inv.Validate())

	inv.RemainingCost = 10_001
	assert.Error(t, inv.Validate())

	inv.RemainingCost = -1
	assert.Error(t, inv.Validate())
}
