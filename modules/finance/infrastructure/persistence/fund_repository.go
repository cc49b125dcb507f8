package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
	"github.com/iota-uz/spendflow/pkg/composables"
)

const fundColumns = `id, company, region, branch, balance::text, reorder_level::text, created_at, updated_at`

const ledgerColumns = `id, fund_id, entry_type, amount::text, execution_id, reconciled, created_at`

type FundRepository struct{}

func NewFundRepository() fund.Repository {
	return &FundRepository{}
}

func (r *FundRepository) Create(ctx context.Context, f fund.Fund) (fund.Fund, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.Fund{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO treasury_funds (company, region, branch, balance, reorder_level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+fundColumns,
		f.Scope().Company,
		f.Scope().Region,
		f.Scope().Branch,
		f.Balance().String(),
		f.ReorderLevel().String(),
	)
	return scanFund(row)
}

func (r *FundRepository) GetByScope(ctx context.Context, scope orgscope.Scope) (fund.Fund, error) {
	fundScope := scope.FundScope()
	return r.getBy(ctx,
		`WHERE company = $1 AND region = $2 AND branch = $3`,
		fundScope.Company, fundScope.Region, fundScope.Branch,
	)
}

func (r *FundRepository) GetByScopeForUpdate(ctx context.Context, scope orgscope.Scope) (fund.Fund, error) {
	fundScope := scope.FundScope()
	return r.getBy(ctx,
		`WHERE company = $1 AND region = $2 AND branch = $3 FOR UPDATE`,
		fundScope.Company, fundScope.Region, fundScope.Branch,
	)
}

func (r *FundRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (fund.Fund, error) {
	return r.getBy(ctx, `WHERE id = $1 FOR UPDATE`, id.String())
}

func (r *FundRepository) getBy(ctx context.Context, clause string, args ...interface{}) (fund.Fund, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.Fund{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+fundColumns+` FROM treasury_funds `+clause, args...)
	f, err := scanFund(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fund.Fund{}, fund.ErrNotFound
		}
		return fund.Fund{}, err
	}
	return f, nil
}

func (r *FundRepository) UpdateBalance(ctx context.Context, f fund.Fund) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE treasury_funds
		SET balance = $2, updated_at = now()
		WHERE id = $1`,
		f.ID().String(),
		f.Balance().String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fund.ErrNotFound
	}
	return nil
}

func (r *FundRepository) CreateLedgerEntry(ctx context.Context, entry fund.LedgerEntry) (fund.LedgerEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.LedgerEntry{}, err
	}
	var executionID *string
	if entry.ExecutionID() != uuid.Nil {
		value := entry.ExecutionID().String()
		executionID = &value
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO ledger_entries (fund_id, entry_type, amount, execution_id, reconciled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+ledgerColumns,
		entry.FundID().String(),
		string(entry.EntryType()),
		entry.Amount().String(),
		executionID,
		entry.IsReconciled(),
	)
	return scanLedgerEntry(row)
}

func (r *FundRepository) ListLedgerEntries(ctx context.Context, fundID uuid.UUID) ([]fund.LedgerEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM ledger_entries
		WHERE fund_id = $1
		ORDER BY created_at DESC, id`,
		fundID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []fund.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func (r *FundRepository) CreateReplenishment(ctx context.Context, request fund.ReplenishmentRequest) (fund.ReplenishmentRequest, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	var m models.ReplenishmentRequest
	err = tx.QueryRow(ctx, `
		INSERT INTO replenishment_requests (fund_id, balance_snapshot, requested_amount, status, auto_triggered)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fund_id, balance_snapshot::text, requested_amount::text, status, auto_triggered, created_at`,
		request.FundID().String(),
		request.BalanceSnapshot().String(),
		request.RequestedAmount().String(),
		string(request.Status()),
		request.IsAutoTriggered(),
	).Scan(&m.ID, &m.FundID, &m.BalanceSnapshot, &m.RequestedAmount, &m.Status, &m.AutoTriggered, &m.CreatedAt)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	return toDomainReplenishment(&m)
}

func (r *FundRepository) HasOpenReplenishment(ctx context.Context, fundID uuid.UUID) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM replenishment_requests
			WHERE fund_id = $1 AND status IN ('pending', 'approved')
		)`,
		fundID.String(),
	).Scan(&exists)
	return exists, err
}

func (r *FundRepository) CreateVariance(ctx context.Context, v fund.VarianceAdjustment) (fund.VarianceAdjustment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO variance_adjustments (fund_id, payment_id, original_amount, adjusted_amount, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+varianceColumns,
		v.FundID().String(),
		v.PaymentID().String(),
		v.OriginalAmount().String(),
		v.AdjustedAmount().String(),
		v.Reason(),
		string(v.Status()),
	)
	return scanVariance(row)
}

func (r *FundRepository) GetVarianceByIDForUpdate(ctx context.Context, id uuid.UUID) (fund.VarianceAdjustment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	row := tx.QueryRow(ctx,
		`SELECT `+varianceColumns+` FROM variance_adjustments WHERE id = $1 FOR UPDATE`,
		id.String(),
	)
	v, err := scanVariance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fund.VarianceAdjustment{}, fund.ErrNotFound.WithDetail(id.String())
		}
		return fund.VarianceAdjustment{}, err
	}
	return v, nil
}

func (r *FundRepository) UpdateVariance(ctx context.Context, v fund.VarianceAdjustment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE variance_adjustments
		SET status = $2
		WHERE id = $1`,
		v.ID().String(),
		string(v.Status()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fund.ErrNotFound
	}
	return nil
}

const varianceColumns = `id, fund_id, payment_id, original_amount::text, adjusted_amount::text, reason, status, created_at`

func scanFund(row pgx.Row) (fund.Fund, error) {
	var m models.Fund
	if err := row.Scan(
		&m.ID, &m.Company, &m.Region, &m.Branch,
		&m.Balance, &m.ReorderLevel, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return fund.Fund{}, err
	}
	return toDomainFund(&m)
}

func scanLedgerEntry(row pgx.Row) (fund.LedgerEntry, error) {
	var m models.LedgerEntry
	if err := row.Scan(
		&m.ID, &m.FundID, &m.EntryType, &m.Amount,
		&m.ExecutionID, &m.Reconciled, &m.CreatedAt,
	); err != nil {
		return fund.LedgerEntry{}, err
	}
	return toDomainLedgerEntry(&m)
}

func scanVariance(row pgx.Row) (fund.VarianceAdjustment, error) {
	var m models.VarianceAdjustment
	if err := row.Scan(
		&m.ID, &m.FundID, &m.PaymentID,
		&m.OriginalAmount, &m.AdjustedAmount,
		&m.Reason, &m.Status, &m.CreatedAt,
	); err != nil {
		return fund.VarianceAdjustment{}, err
	}
	return toDomainVariance(&m)
}
