package fund

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

var (
	ErrInsufficientBalance = serrors.NewError(
		"FINANCE_VALIDATION_INSUFFICIENT_BALANCE",
		"fund balance is lower than the requested amount",
		"Finance.Errors.InsufficientBalance",
	)
	ErrNegativeAmount = serrors.NewError(
		"FINANCE_VALIDATION_NEGATIVE_AMOUNT",
		"ledger amounts must be positive",
		"Finance.Errors.NegativeAmount",
	)
)

// Fund is the cash pool for one (company, region, branch) scope. The balance
// only ever changes inside a locked transaction, paired with a ledger entry
// of the same amount.
type Fund struct {
	id           uuid.UUID
	scope        orgscope.Scope
	balance      decimal.Decimal
	reorderLevel decimal.Decimal
	createdAt    time.Time
	updatedAt    time.Time
}

func New(scope orgscope.Scope, balance, reorderLevel decimal.Decimal) Fund {
	return Fund{
		scope:        scope.FundScope(),
		balance:      balance,
		reorderLevel: reorderLevel,
	}
}

func Hydrate(
	id uuid.UUID,
	scope orgscope.Scope,
	balance decimal.Decimal,
	reorderLevel decimal.Decimal,
	createdAt time.Time,
	updatedAt time.Time,
) Fund {
	return Fund{
		id:           id,
		scope:        scope,
		balance:      balance,
		reorderLevel: reorderLevel,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (f Fund) ID() uuid.UUID                 { return f.id }
func (f Fund) Scope() orgscope.Scope         { return f.scope }
func (f Fund) Balance() decimal.Decimal      { return f.balance }
func (f Fund) ReorderLevel() decimal.Decimal { return f.reorderLevel }
func (f Fund) CreatedAt() time.Time          { return f.createdAt }
func (f Fund) UpdatedAt() time.Time          { return f.updatedAt }
func (f Fund) IsZero() bool                  { return f.id == uuid.Nil && f.scope.IsZero() }

func (f Fund) CanCover(amount decimal.Decimal) bool {
	return f.balance.GreaterThanOrEqual(amount)
}

func (f Fund) BelowReorderLevel() bool {
	return f.balance.LessThan(f.reorderLevel)
}

// Debit reduces the balance, refusing to go negative.
func (f *Fund) Debit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNegativeAmount.WithDetail(amount.String())
	}
	if !f.CanCover(amount) {
		return ErrInsufficientBalance.WithTemplateData(map[string]string{
			"balance": f.balance.String(),
			"amount":  amount.String(),
		})
	}
	f.balance = f.balance.Sub(amount)
	return nil
}

func (f *Fund) Credit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNegativeAmount.WithDetail(amount.String())
	}
	f.balance = f.balance.Add(amount)
	return nil
}

// Adjust applies a signed variance delta. A negative delta may not push the
// balance below zero.
func (f *Fund) Adjust(delta decimal.Decimal) error {
	next := f.balance.Add(delta)
	if next.IsNegative() {
		return ErrInsufficientBalance.WithTemplateData(map[string]string{
			"balance": f.balance.String(),
			"amount":  delta.String(),
		})
	}
	f.balance = next
	return nil
}
