package fund

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/pkg/serrors"
)

type VarianceStatus string

const (
	VariancePending  VarianceStatus = "pending"
	VarianceApproved VarianceStatus = "approved"
	VarianceRejected VarianceStatus = "rejected"
)

var ErrVarianceNotPending = serrors.NewError(
	"FINANCE_VALIDATION_VARIANCE_NOT_PENDING",
	"variance adjustment has already been decided",
	"Finance.Errors.VarianceNotPending",
)

// VarianceAdjustment records a CFO-approved correction between the amount a
// payment was approved for and what was actually paid.
type VarianceAdjustment struct {
	id             uuid.UUID
	fundID         uuid.UUID
	paymentID      uuid.UUID
	originalAmount decimal.Decimal
	adjustedAmount decimal.Decimal
	reason         string
	status         VarianceStatus
	createdAt      time.Time
}

func NewVarianceAdjustment(
	fundID uuid.UUID,
	paymentID uuid.UUID,
	originalAmount, adjustedAmount decimal.Decimal,
	reason string,
) VarianceAdjustment {
	return VarianceAdjustment{
		fundID:         fundID,
		paymentID:      paymentID,
		originalAmount: originalAmount,
		adjustedAmount: adjustedAmount,
		reason:         reason,
		status:         VariancePending,
	}
}

func HydrateVarianceAdjustment(
	id uuid.UUID,
	fundID uuid.UUID,
	paymentID uuid.UUID,
	originalAmount, adjustedAmount decimal.Decimal,
	reason string,
	status VarianceStatus,
	createdAt time.Time,
) VarianceAdjustment {
	return VarianceAdjustment{
		id:             id,
		fundID:         fundID,
		paymentID:      paymentID,
		originalAmount: originalAmount,
		adjustedAmount: adjustedAmount,
		reason:         reason,
		status:         status,
		createdAt:      createdAt,
	}
}

func (v VarianceAdjustment) ID() uuid.UUID                   { return v.id }
func (v VarianceAdjustment) FundID() uuid.UUID               { return v.fundID }
func (v VarianceAdjustment) PaymentID() uuid.UUID            { return v.paymentID }
func (v VarianceAdjustment) OriginalAmount() decimal.Decimal { return v.originalAmount }
func (v VarianceAdjustment) AdjustedAmount() decimal.Decimal { return v.adjustedAmount }
func (v VarianceAdjustment) Reason() string                  { return v.reason }
func (v VarianceAdjustment) Status() VarianceStatus          { return v.status }
func (v VarianceAdjustment) CreatedAt() time.Time            { return v.createdAt }

// Variance is adjusted minus original: positive when more was actually paid
// than approved.
func (v VarianceAdjustment) Variance() decimal.Decimal {
	return v.adjustedAmount.Sub(v.originalAmount)
}

// BalanceDelta is the signed amount the fund moves by on approval. Paying
// more than approved means extra cash already left the fund, so the balance
// goes down by the variance.
func (v VarianceAdjustment) BalanceDelta() decimal.Decimal {
	return v.Variance().Neg()
}

func (v *VarianceAdjustment) Approve() error {
	if v.status != VariancePending {
		return ErrVarianceNotPending.WithDetail(string(v.status))
	}
	v.status = VarianceApproved
	return nil
}

func (v *VarianceAdjustment) Reject() error {
	if v.status != VariancePending {
		return ErrVarianceNotPending.WithDetail(string(v.status))
	}
	v.status = VarianceRejected
	return nil
}
