package payment_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
)

func pendingPayment() payment.Payment {
	return payment.New(
		uuid.New(), uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		orgscope.Scope{Company: "acme", Region: "north", Branch: "b-01"},
		decimal.RequireFromString("5000.00"),
		payment.MethodBankTransfer, "ACC-001", 3,
	)
}

func TestPayment_SuccessPath(t *testing.T) {
	p := pendingPayment()
	executor := uuid.New()

	require.NoError(t, p.MarkExecuting())
	require.NoError(t, p.MarkSuccess(executor))
	assert.Equal(t, payment.StatusSuccess, p.Status())
	assert.Equal(t, executor, p.ExecutorID())
	assert.True(t, p.IsExecuted())

	require.ErrorIs(t, p.MarkExecuting(), payment.ErrAlreadyExecuted)
	require.ErrorIs(t, p.MarkSuccess(executor), payment.ErrAlreadyExecuted)
}

func TestPayment_RequesterCannotBeExecutor(t *testing.T) {
	p := pendingPayment()
	err := p.MarkSuccess(p.RequesterID())
	require.ErrorIs(t, err, payment.ErrExecutorIsRequester)
	assert.False(t, p.IsExecuted())
}

func TestPayment_RetryAccounting(t *testing.T) {
	p := pendingPayment()
	for i := 0; i < 3; i++ {
		assert.False(t, p.RetriesExhausted())
		p.MarkFailed()
	}
	assert.Equal(t, 3, p.RetryCount())
	assert.True(t, p.RetriesExhausted())
	require.ErrorIs(t, p.MarkExecuting(), payment.ErrRetriesExhausted)
}

func TestPayment_Reconcile(t *testing.T) {
	p := pendingPayment()
	require.Error(t, p.MarkReconciled())

	require.NoError(t, p.MarkSuccess(uuid.New()))
	require.NoError(t, p.MarkReconciled())
	assert.Equal(t, payment.StatusReconciled, p.Status())
	assert.True(t, p.IsExecuted())
	require.Error(t, p.MarkReconciled())
}
