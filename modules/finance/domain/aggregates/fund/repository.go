package fund

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

var ErrNotFound = serrors.NewError(
	"FINANCE_FUND_NOT_FOUND",
	"treasury fund not found for scope",
	"Finance.Errors.FundNotFound",
)

type Repository interface {
	Create(ctx context.Context, f Fund) (Fund, error)
	GetByScope(ctx context.Context, scope orgscope.Scope) (Fund, error)
	// GetByScopeForUpdate takes the exclusive row lock every balance
	// mutation must hold. The balance read through it is authoritative;
	// any earlier read is advisory only.
	GetByScopeForUpdate(ctx context.Context, scope orgscope.Scope) (Fund, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Fund, error)
	// UpdateBalance persists the fund's balance; it must only be called in
	// the same transaction as a CreateLedgerEntry of the matching amount.
	UpdateBalance(ctx context.Context, f Fund) error

	CreateLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, fundID uuid.UUID) ([]LedgerEntry, error)

	CreateReplenishment(ctx context.Context, r ReplenishmentRequest) (ReplenishmentRequest, error)
	// HasOpenReplenishment reports whether a pending or approved request
	// already exists for the fund.
	HasOpenReplenishment(ctx context.Context, fundID uuid.UUID) (bool, error)

	CreateVariance(ctx context.Context, v VarianceAdjustment) (VarianceAdjustment, error)
	GetVarianceByIDForUpdate(ctx context.Context, id uuid.UUID) (VarianceAdjustment, error)
	UpdateVariance(ctx context.Context, v VarianceAdjustment) error
}
