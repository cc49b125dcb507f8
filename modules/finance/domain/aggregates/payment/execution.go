package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Execution is the immutable audit record of a successfully executed
// payment, created exactly once. GatewayReference doubles as the idempotency
// key towards the payment rail and is unique across all executions.
type Execution struct {
	id               uuid.UUID
	paymentID        uuid.UUID
	executorID       uuid.UUID
	gatewayReference string
	gatewayStatus    string
	otpVerifiedAt    time.Time
	createdAt        time.Time
}

func NewExecution(
	paymentID uuid.UUID,
	executorID uuid.UUID,
	gatewayReference string,
	otpVerifiedAt time.Time,
) Execution {
	return Execution{
		paymentID:        paymentID,
		executorID:       executorID,
		gatewayReference: gatewayReference,
		gatewayStatus:    "submitted",
		otpVerifiedAt:    otpVerifiedAt,
	}
}

func HydrateExecution(
	id uuid.UUID,
	paymentID uuid.UUID,
	executorID uuid.UUID,
	gatewayReference string,
	gatewayStatus string,
	otpVerifiedAt time.Time,
	createdAt time.Time,
) Execution {
	return Execution{
		id:               id,
		paymentID:        paymentID,
		executorID:       executorID,
		gatewayReference: gatewayReference,
		gatewayStatus:    gatewayStatus,
		otpVerifiedAt:    otpVerifiedAt,
		createdAt:        createdAt,
	}
}

func (e Execution) ID() uuid.UUID            { return e.id }
func (e Execution) PaymentID() uuid.UUID     { return e.paymentID }
func (e Execution) ExecutorID() uuid.UUID    { return e.executorID }
func (e Execution) GatewayReference() string { return e.gatewayReference }
func (e Execution) GatewayStatus() string    { return e.gatewayStatus }
func (e Execution) OTPVerifiedAt() time.Time { return e.otpVerifiedAt }
func (e Execution) CreatedAt() time.Time     { return e.createdAt }

// Instruction is what the payment rail receives.
type Instruction struct {
	Destination string
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// Receipt is the rail's synchronous acknowledgement; final settlement
// arrives later through reconciliation.
type Receipt struct {
	GatewayReference string
	Status           string
}

// Gateway abstracts the payment rail. Submissions happen outside any fund
// lock; the debit is synchronous and the rail confirms asynchronously.
type Gateway interface {
	Submit(ctx context.Context, instruction Instruction) (Receipt, error)
}
