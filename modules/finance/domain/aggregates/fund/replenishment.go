package fund

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReplenishmentStatus string

const (
	ReplenishmentPending   ReplenishmentStatus = "pending"
	ReplenishmentApproved  ReplenishmentStatus = "approved"
	ReplenishmentRejected  ReplenishmentStatus = "rejected"
	ReplenishmentFulfilled ReplenishmentStatus = "fulfilled"
)

// ReplenishmentRequest asks treasury to top a fund back up. Auto-triggered
// requests are created by the post-debit check, at most one open request per
// fund.
type ReplenishmentRequest struct {
	id              uuid.UUID
	fundID          uuid.UUID
	balanceSnapshot decimal.Decimal
	requestedAmount decimal.Decimal
	status          ReplenishmentStatus
	autoTriggered   bool
	createdAt       time.Time
}

func NewReplenishmentRequest(fundID uuid.UUID, balanceSnapshot, requestedAmount decimal.Decimal) ReplenishmentRequest {
	return ReplenishmentRequest{
		fundID:          fundID,
		balanceSnapshot: balanceSnapshot,
		requestedAmount: requestedAmount,
		status:          ReplenishmentPending,
	}
}

func (r ReplenishmentRequest) AsAutoTriggered() ReplenishmentRequest {
	r.autoTriggered = true
	return r
}

func HydrateReplenishmentRequest(
	id uuid.UUID,
	fundID uuid.UUID,
	balanceSnapshot decimal.Decimal,
	requestedAmount decimal.Decimal,
	status ReplenishmentStatus,
	autoTriggered bool,
	createdAt time.Time,
) ReplenishmentRequest {
	return ReplenishmentRequest{
		id:              id,
		fundID:          fundID,
		balanceSnapshot: balanceSnapshot,
		requestedAmount: requestedAmount,
		status:          status,
		autoTriggered:   autoTriggered,
		createdAt:       createdAt,
	}
}

func (r ReplenishmentRequest) ID() uuid.UUID                    { return r.id }
func (r ReplenishmentRequest) FundID() uuid.UUID                { return r.fundID }
func (r ReplenishmentRequest) BalanceSnapshot() decimal.Decimal { return r.balanceSnapshot }
func (r ReplenishmentRequest) RequestedAmount() decimal.Decimal { return r.requestedAmount }
func (r ReplenishmentRequest) Status() ReplenishmentStatus      { return r.status }
func (r ReplenishmentRequest) IsAutoTriggered() bool            { return r.autoTriggered }
func (r ReplenishmentRequest) CreatedAt() time.Time             { return r.createdAt }
