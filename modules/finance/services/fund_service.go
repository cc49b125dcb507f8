package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/configuration"
	"github.com/iota-uz/spendflow/pkg/eventbus"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

var (
	ErrZeroVariance = serrors.NewError(
		"FINANCE_VALIDATION_ZERO_VARIANCE",
		"adjusted amount equals the approved amount; nothing to reconcile",
		"Finance.Errors.ZeroVariance",
	)
	ErrVarianceRestricted = serrors.NewError(
		"FINANCE_AUTHORIZATION_VARIANCE_RESTRICTED",
		"only the CFO or a superuser may decide variance adjustments",
		"Finance.Errors.VarianceRestricted",
	)
)

// FundService manages treasury funds, their journal, replenishment requests
// and variance reconciliation.
type FundService struct {
	repo      fund.Repository
	payments  payment.Repository
	directory approver.Directory
	publisher eventbus.EventBus
	conf      configuration.FinanceOptions
}

func NewFundService(
	repo fund.Repository,
	payments payment.Repository,
	directory approver.Directory,
	publisher eventbus.EventBus,
	conf configuration.FinanceOptions,
) *FundService {
	return &FundService{
		repo:      repo,
		payments:  payments,
		directory: directory,
		publisher: publisher,
		conf:      conf,
	}
}

func (s *FundService) Create(ctx context.Context, f fund.Fund) (fund.Fund, error) {
	var created fund.Fund
	err := inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, f)
		return err
	})
	return created, err
}

func (s *FundService) GetByScope(ctx context.Context, scope orgscope.Scope) (fund.Fund, error) {
	return s.repo.GetByScope(ctx, scope)
}

func (s *FundService) Ledger(ctx context.Context, fundID uuid.UUID) ([]fund.LedgerEntry, error) {
	return s.repo.ListLedgerEntries(ctx, fundID)
}

// Credit tops a fund up, typically when a replenishment request is
// fulfilled. The balance change and its credit journal line commit together
// under the fund row lock.
func (s *FundService) Credit(ctx context.Context, fundID uuid.UUID, amount decimal.Decimal) (fund.Fund, error) {
	var result fund.Fund
	err := inTx(ctx, func(txCtx context.Context) error {
		f, err := s.repo.GetByIDForUpdate(txCtx, fundID)
		if err != nil {
			return err
		}
		if err := f.Credit(amount); err != nil {
			return err
		}
		if _, err := s.repo.CreateLedgerEntry(txCtx, fund.NewLedgerEntry(f.ID(), fund.EntryCredit, amount)); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(txCtx, f); err != nil {
			return err
		}
		result = f
		return nil
	})
	return result, err
}

// EvaluateReplenishment runs inside the caller's debit transaction, after
// the balance has been reduced. It raises at most one open auto-triggered
// request per fund, asking for the reorder level times the configured
// multiplier.
func (s *FundService) EvaluateReplenishment(ctx context.Context, f fund.Fund) error {
	if !f.BelowReorderLevel() {
		return nil
	}
	open, err := s.repo.HasOpenReplenishment(ctx, f.ID())
	if err != nil {
		return err
	}
	if open {
		return nil
	}
	requested := f.ReorderLevel().Mul(decimal.NewFromFloat(s.conf.ReorderMultiplier))
	request, err := s.repo.CreateReplenishment(ctx,
		fund.NewReplenishmentRequest(f.ID(), f.Balance(), requested).AsAutoTriggered())
	if err != nil {
		return err
	}
	s.publisher.Publish(fund.NewReplenishmentRequestedEvent(f, request))
	return nil
}

// RecordVariance opens a reconciliation case for a payment whose actual cost
// differed from the approved amount. A zero delta is refused outright.
func (s *FundService) RecordVariance(ctx context.Context, paymentID uuid.UUID, adjustedAmount decimal.Decimal, reason string) (fund.VarianceAdjustment, error) {
	var created fund.VarianceAdjustment
	err := inTx(ctx, func(txCtx context.Context) error {
		p, err := s.payments.GetByID(txCtx, paymentID)
		if err != nil {
			return err
		}
		if adjustedAmount.Equal(p.Amount()) {
			return ErrZeroVariance
		}
		f, err := s.repo.GetByScope(txCtx, p.Scope())
		if err != nil {
			return err
		}
		created, err = s.repo.CreateVariance(txCtx,
			fund.NewVarianceAdjustment(f.ID(), p.ID(), p.Amount(), adjustedAmount, reason))
		return err
	})
	return created, err
}

// ApproveVariance applies the signed correction to the fund. The variance
// row lock makes the decision idempotent and the fund row lock pairs the
// balance change with its adjustment journal line.
func (s *FundService) ApproveVariance(ctx context.Context, varianceID, actorID uuid.UUID) (fund.VarianceAdjustment, error) {
	var (
		decided fund.VarianceAdjustment
		debited fund.Fund
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		if err := s.guardVarianceActor(txCtx, actorID); err != nil {
			return err
		}
		v, err := s.repo.GetVarianceByIDForUpdate(txCtx, varianceID)
		if err != nil {
			return err
		}
		if err := v.Approve(); err != nil {
			return err
		}
		f, err := s.repo.GetByIDForUpdate(txCtx, v.FundID())
		if err != nil {
			return err
		}
		if err := f.Adjust(v.BalanceDelta()); err != nil {
			return err
		}
		entry := fund.NewLedgerEntry(f.ID(), fund.EntryAdjustment, v.Variance().Abs()).AsReconciled()
		if _, err := s.repo.CreateLedgerEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(txCtx, f); err != nil {
			return err
		}
		if err := s.repo.UpdateVariance(txCtx, v); err != nil {
			return err
		}
		decided = v
		debited = f
		return nil
	})
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	s.publisher.Publish(fund.NewVarianceDecidedEvent(debited, decided))
	return decided, nil
}

func (s *FundService) RejectVariance(ctx context.Context, varianceID, actorID uuid.UUID) (fund.VarianceAdjustment, error) {
	var (
		decided fund.VarianceAdjustment
		owner   fund.Fund
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		if err := s.guardVarianceActor(txCtx, actorID); err != nil {
			return err
		}
		v, err := s.repo.GetVarianceByIDForUpdate(txCtx, varianceID)
		if err != nil {
			return err
		}
		if err := v.Reject(); err != nil {
			return err
		}
		if err := s.repo.UpdateVariance(txCtx, v); err != nil {
			return err
		}
		f, err := s.repo.GetByIDForUpdate(txCtx, v.FundID())
		if err != nil {
			return err
		}
		decided = v
		owner = f
		return nil
	})
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	s.publisher.Publish(fund.NewVarianceDecidedEvent(owner, decided))
	return decided, nil
}

func (s *FundService) guardVarianceActor(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if actor.Role() != approver.RoleCFO && actor.Role() != approver.RoleSuperuser {
		return ErrVarianceRestricted
	}
	return nil
}
