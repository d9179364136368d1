package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MySQL applies SET assignments left to right, and a later expression that
// references an already assigned column sees the updated value. The fulfilled
// check therefore has to come after the amount_paid increment and read the
// column directly; re-adding the payment there would double-count it and
// mark a half-paid pledge fulfilled.
func TestRecordPaymentStatementOrder(t *testing.T) {
	paidIdx := strings.Index(recordPaymentSQL, "amount_paid = amount_paid + ?")
	statusIdx := strings.Index(recordPaymentSQL, "status = CASE")

	require.GreaterOrEqual(t, paidIdx, 0, "increment assignment missing")
	require.GreaterOrEqual(t, statusIdx, 0, "status assignment missing")
	assert.Less(t, paidIdx, statusIdx, "increment must be assigned before the status CASE")

	assert.Contains(t, recordPaymentSQL, "CASE WHEN amount_paid >= amount_pledged",
		"status must compare the already incremented column")
	assert.NotContains(t, recordPaymentSQL, "amount_paid + ? >=",
		"adding the payment again in the comparison double-counts it")
}
