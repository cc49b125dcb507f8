package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/pkg/serrors"
)

var (
	ErrNotFound = serrors.NewError(
		"FINANCE_PAYMENT_NOT_FOUND",
		"payment not found",
		"Finance.Errors.PaymentNotFound",
	)
	ErrNoOTP = serrors.NewError(
		"FINANCE_VALIDATION_NO_OTP",
		"no one-time password has been issued for this payment",
		"Finance.Errors.NoOTP",
	)
)

type Repository interface {
	Create(ctx context.Context, p Payment) (Payment, error)
	GetByID(ctx context.Context, id uuid.UUID) (Payment, error)
	// GetByIDForUpdate locks the payment row for the duration of the
	// execution transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Payment, error)
	GetByRequisitionID(ctx context.Context, requisitionID uuid.UUID) (Payment, error)
	GetByGatewayReference(ctx context.Context, reference string) (Payment, error)
	Update(ctx context.Context, p Payment) error

	CreateOTP(ctx context.Context, otp OTP) (OTP, error)
	// LatestOTP returns the most recently issued OTP for the payment, or
	// ErrNoOTP when none exists.
	LatestOTP(ctx context.Context, paymentID uuid.UUID) (OTP, error)
	// MarkOTPVerified flips verified atomically (compare-and-set on the
	// unverified state). It returns false when the OTP was already verified,
	// so a concurrent second verification loses deterministically.
	MarkOTPVerified(ctx context.Context, otpID uuid.UUID) (bool, error)

	CreateExecution(ctx context.Context, e Execution) (Execution, error)
}
