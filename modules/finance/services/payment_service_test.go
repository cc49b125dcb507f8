package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
)

type paymentFixture struct {
	service   *PaymentService
	payments  *memPayments
	funds     *memFunds
	directory *memDirectory
	requester uuid.UUID
	executor  uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	useMemTx(t)

	directory := newMemDirectory()
	payments := newMemPayments()
	funds := newMemFunds()
	bus := testBus()
	conf := testFinanceOptions()
	fundService := NewFundService(funds, payments, directory, bus, conf)

	return &paymentFixture{
		service:   NewPaymentService(payments, funds, fundService, nil, bus, conf),
		payments:  payments,
		funds:     funds,
		directory: directory,
		requester: uuid.New(),
		executor:  uuid.New(),
	}
}

func (f *paymentFixture) seedPayment(t *testing.T, amount string) payment.Payment {
	t.Helper()
	p, err := f.payments.Create(context.Background(), payment.New(
		uuid.New(), f.requester, branchScope(), amt(amount),
		payment.MethodBankTransfer, "ACC-001", testFinanceOptions().PaymentMaxRetries,
	))
	require.NoError(t, err)
	return p
}

func (f *paymentFixture) verifyOTP(t *testing.T, paymentID uuid.UUID) {
	t.Helper()
	code, err := f.service.RequestOTP(context.Background(), paymentID)
	require.NoError(t, err)
	require.NoError(t, f.service.VerifyOTP(context.Background(), paymentID, code))
}

func TestPaymentService_OTPLifecycle(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")

	code, err := f.service.RequestOTP(context.Background(), p.ID())
	require.NoError(t, err)
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}
	require.ErrorIs(t, f.service.VerifyOTP(context.Background(), p.ID(), wrong), payment.ErrOTPInvalid)

	require.NoError(t, f.service.VerifyOTP(context.Background(), p.ID(), code))

	// A verified OTP is consumed; the same code cannot be replayed.
	err = f.service.VerifyOTP(context.Background(), p.ID(), code)
	require.ErrorIs(t, err, payment.ErrOTPAlreadyUsed)
}

func TestPaymentService_ExecuteDebitsFund(t *testing.T) {
	f := newPaymentFixture(t)
	seeded := f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	executed, err := f.service.Execute(context.Background(), p.ID(), f.executor, "ref-001")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, executed.Status())
	assert.Equal(t, f.executor, executed.ExecutorID())

	after, err := f.funds.GetByIDForUpdate(context.Background(), seeded.ID())
	require.NoError(t, err)
	assert.True(t, after.Balance().Equal(amt("95000.00")), "balance is %s", after.Balance())

	entries, err := f.funds.ListLedgerEntries(context.Background(), seeded.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, fund.EntryDebit, entries[0].EntryType())
	assert.True(t, entries[0].Amount().Equal(amt("5000.00")))
	assert.NotEqual(t, uuid.Nil, entries[0].ExecutionID())
}

func TestPaymentService_ExecuteRequiresVerifiedOTP(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")

	_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "")
	require.ErrorIs(t, err, payment.ErrOTPNotVerified)

	after, err := f.payments.GetByID(context.Background(), p.ID())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, after.Status())
	assert.Equal(t, 1, after.RetryCount())
}

func TestPaymentService_RequesterCannotExecute(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	_, err := f.service.Execute(context.Background(), p.ID(), f.requester, "")
	require.ErrorIs(t, err, payment.ErrExecutorIsRequester)

	allowed, reason := f.service.CanExecute(context.Background(), p.ID(), f.requester)
	assert.False(t, allowed)
	assert.NotEmpty(t, reason)
}

func TestPaymentService_ExecuteExactlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "ref-001")
	require.NoError(t, err)

	_, err = f.service.Execute(context.Background(), p.ID(), f.executor, "ref-002")
	require.ErrorIs(t, err, payment.ErrAlreadyExecuted)

	after, err := f.funds.GetByScope(context.Background(), branchScope())
	require.NoError(t, err)
	assert.True(t, after.Balance().Equal(amt("95000.00")))
}

func TestPaymentService_InsufficientFunds(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("1000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "")
	require.ErrorIs(t, err, fund.ErrInsufficientBalance)

	after, err := f.funds.GetByScope(context.Background(), branchScope())
	require.NoError(t, err)
	assert.True(t, after.Balance().Equal(amt("1000.00")))
}

func TestPaymentService_RetriesExhausted(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("1000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	for i := 0; i < 3; i++ {
		_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "")
		require.ErrorIs(t, err, fund.ErrInsufficientBalance)
	}

	_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "")
	require.ErrorIs(t, err, payment.ErrRetriesExhausted)
}

func TestPaymentService_ConcurrentExecutionsRespectBalance(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("10000.00"), decimal.Zero)

	const workers = 5
	ids := make([]uuid.UUID, 0, workers)
	for i := 0; i < workers; i++ {
		p := f.seedPayment(t, "3000.00")
		f.verifyOTP(t, p.ID())
		ids = append(ids, p.ID())
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Execute(context.Background(), ids[i], f.executor, "")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, fund.ErrInsufficientBalance)
		}
	}
	// floor(10000 / 3000): exactly three debits fit.
	assert.Equal(t, 3, successes)

	after, err := f.funds.GetByScope(context.Background(), branchScope())
	require.NoError(t, err)
	assert.True(t, after.Balance().Equal(amt("1000.00")), "balance is %s", after.Balance())
}

func TestPaymentService_Reconcile(t *testing.T) {
	f := newPaymentFixture(t)
	f.funds.seed(branchScope(), amt("100000.00"), decimal.Zero)
	p := f.seedPayment(t, "5000.00")
	f.verifyOTP(t, p.ID())

	_, err := f.service.Execute(context.Background(), p.ID(), f.executor, "ref-42")
	require.NoError(t, err)

	reconciled, err := f.service.Reconcile(context.Background(), "ref-42", "settled")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusReconciled, reconciled.Status())

	_, err = f.service.Reconcile(context.Background(), "ref-missing", "settled")
	require.ErrorIs(t, err, payment.ErrNotFound)
}

func TestPaymentService_ReplenishmentTriggeredOnce(t *testing.T) {
	f := newPaymentFixture(t)
	seeded := f.funds.seed(branchScope(), amt("6000.00"), amt("5000.00"))

	first := f.seedPayment(t, "3000.00")
	f.verifyOTP(t, first.ID())
	_, err := f.service.Execute(context.Background(), first.ID(), f.executor, "")
	require.NoError(t, err)

	require.Len(t, f.funds.replenishments, 1)
	request := f.funds.replenishments[0]
	assert.Equal(t, seeded.ID(), request.FundID())
	assert.True(t, request.IsAutoTriggered())
	assert.True(t, request.RequestedAmount().Equal(amt("10000.00")), "requested %s", request.RequestedAmount())
	assert.True(t, request.BalanceSnapshot().Equal(amt("3000.00")))

	// A second drop below the reorder level does not raise a second request
	// while one is still open.
	second := f.seedPayment(t, "1000.00")
	f.verifyOTP(t, second.ID())
	_, err = f.service.Execute(context.Background(), second.ID(), f.executor, "")
	require.NoError(t, err)
	assert.Len(t, f.funds.replenishments, 1)
}
