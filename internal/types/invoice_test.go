package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStateTransitions(t *testing.T) {
	assert.True(t, InvoiceStatePending.CanTransitionTo(InvoiceStatePartiallyPaid))
	assert.True(t, InvoiceStatePending.CanTransitionTo(InvoiceStatePaid))
	assert.True(t, InvoiceStatePartiallyPaid.CanTransitionTo(InvoiceStatePaid))

	// No backward transitions
	assert.False(t, InvoiceStatePartiallyPaid.CanTransitionTo(InvoiceStatePending))
	assert.False(t, InvoiceStatePaid.CanTransitionTo(InvoiceStatePartiallyPaid))
	assert.False(t, InvoiceStatePaid.CanTransitionTo(InvoiceStatePending))

	// Self transitions are no-ops
	assert.True(t, InvoiceStatePaid.CanTransitionTo(InvoiceStatePaid))
	assert.True(t, InvoiceStatePending.CanTransitionTo(InvoiceStatePending))
}
