package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusExecuting  Status = "executing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusReconciled Status = "reconciled"
)

type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodMobileWallet Method = "mobile_wallet"
)

var (
	ErrAlreadyExecuted = serrors.NewError(
		"FINANCE_VALIDATION_PAYMENT_EXECUTED",
		"payment has already been executed",
		"Finance.Errors.PaymentExecuted",
	)
	ErrRetriesExhausted = serrors.NewError(
		"FINANCE_VALIDATION_RETRIES_EXHAUSTED",
		"payment retry limit exceeded, manual resolution required",
		"Finance.Errors.RetriesExhausted",
	)
	ErrExecutorIsRequester = serrors.NewError(
		"FINANCE_AUTHORIZATION_EXECUTOR_IS_REQUESTER",
		"payment executor cannot be the requisition's requester",
		"Finance.Errors.ExecutorIsRequester",
	)
)

// Payment is the execution side of a reviewed requisition, 1:1 with it.
// RequesterID is carried from the requisition so the segregation-of-duties
// check needs no join at execution time.
type Payment struct {
	id            uuid.UUID
	requisitionID uuid.UUID
	requesterID   uuid.UUID
	scope         orgscope.Scope
	amount        decimal.Decimal
	method        Method
	destination   string
	status        Status
	executorID    uuid.UUID
	otpRequired   bool
	retryCount    int
	maxRetries    int
	createdAt     time.Time
	updatedAt     time.Time
}

func New(
	requisitionID uuid.UUID,
	requesterID uuid.UUID,
	scope orgscope.Scope,
	amount decimal.Decimal,
	method Method,
	destination string,
	maxRetries int,
) Payment {
	return Payment{
		requisitionID: requisitionID,
		requesterID:   requesterID,
		scope:         scope.FundScope(),
		amount:        amount,
		method:        method,
		destination:   destination,
		status:        StatusPending,
		otpRequired:   true,
		maxRetries:    maxRetries,
	}
}

func Hydrate(
	id uuid.UUID,
	requisitionID uuid.UUID,
	requesterID uuid.UUID,
	scope orgscope.Scope,
	amount decimal.Decimal,
	method Method,
	destination string,
	status Status,
	executorID uuid.UUID,
	otpRequired bool,
	retryCount int,
	maxRetries int,
	createdAt time.Time,
	updatedAt time.Time,
) Payment {
	return Payment{
		id:            id,
		requisitionID: requisitionID,
		requesterID:   requesterID,
		scope:         scope,
		amount:        amount,
		method:        method,
		destination:   destination,
		status:        status,
		executorID:    executorID,
		otpRequired:   otpRequired,
		retryCount:    retryCount,
		maxRetries:    maxRetries,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (p Payment) ID() uuid.UUID            { return p.id }
func (p Payment) RequisitionID() uuid.UUID { return p.requisitionID }
func (p Payment) RequesterID() uuid.UUID   { return p.requesterID }
func (p Payment) Scope() orgscope.Scope    { return p.scope }
func (p Payment) Amount() decimal.Decimal  { return p.amount }
func (p Payment) Method() Method           { return p.method }
func (p Payment) Destination() string      { return p.destination }
func (p Payment) Status() Status           { return p.status }
func (p Payment) ExecutorID() uuid.UUID    { return p.executorID }
func (p Payment) OTPRequired() bool        { return p.otpRequired }
func (p Payment) RetryCount() int          { return p.retryCount }
func (p Payment) MaxRetries() int          { return p.maxRetries }
func (p Payment) CreatedAt() time.Time     { return p.createdAt }
func (p Payment) UpdatedAt() time.Time     { return p.updatedAt }

func (p Payment) IsExecuted() bool {
	return p.status == StatusSuccess || p.status == StatusReconciled
}

func (p Payment) RetriesExhausted() bool {
	return p.retryCount >= p.maxRetries
}

func (p *Payment) MarkExecuting() error {
	if p.IsExecuted() {
		return ErrAlreadyExecuted
	}
	if p.RetriesExhausted() {
		return ErrRetriesExhausted
	}
	p.status = StatusExecuting
	return nil
}

// MarkSuccess records who executed the payment. Executes-at-most-once is
// enforced here and again by the unique execution record.
func (p *Payment) MarkSuccess(executorID uuid.UUID) error {
	if p.IsExecuted() {
		return ErrAlreadyExecuted
	}
	if executorID == p.requesterID {
		return ErrExecutorIsRequester
	}
	p.status = StatusSuccess
	p.executorID = executorID
	return nil
}

// MarkFailed bumps the retry counter; it is recorded outside the rolled-back
// execution transaction.
func (p *Payment) MarkFailed() {
	p.status = StatusFailed
	p.retryCount++
}

// MarkReconciled confirms the gateway settled the payment.
func (p *Payment) MarkReconciled() error {
	if p.status != StatusSuccess {
		return ErrAlreadyExecuted.WithDetail(string(p.status))
	}
	p.status = StatusReconciled
	return nil
}
