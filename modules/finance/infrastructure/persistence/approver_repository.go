package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
	"github.com/iota-uz/spendflow/pkg/composables"
)

const approverColumns = `id, name, email, role, company, region, branch, department, centralized, active, created_at, updated_at`

type ApproverRepository struct{}

func NewApproverRepository() *ApproverRepository {
	return &ApproverRepository{}
}

func (r *ApproverRepository) GetByID(ctx context.Context, id uuid.UUID) (approver.Approver, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return approver.Approver{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+approverColumns+` FROM approvers WHERE id = $1`, id.String())
	a, err := scanApprover(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return approver.Approver{}, approver.ErrNotFound.WithDetail(id.String())
		}
		return approver.Approver{}, err
	}
	return a, nil
}

// FindActiveByRole filters by every non-empty scope field. A centralized
// approver matches any scope for their role.
func (r *ApproverRepository) FindActiveByRole(ctx context.Context, role approver.Role, scope orgscope.Scope) ([]approver.Approver, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"role = $1", "active = TRUE"}
	args := []interface{}{string(role)}
	argPos := 2
	for _, field := range []struct {
		column string
		value  string
	}{
		{"company", scope.Company},
		{"region", scope.Region},
		{"branch", scope.Branch},
		{"department", scope.Department},
	} {
		if field.value == "" {
			continue
		}
		where = append(where, fmt.Sprintf("(centralized OR %s = $%d)", field.column, argPos))
		args = append(args, field.value)
		argPos++
	}

	query := `SELECT ` + approverColumns + ` FROM approvers WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY name, id`
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []approver.Approver
	for rows.Next() {
		a, err := scanApprover(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

func (r *ApproverRepository) Create(ctx context.Context, a approver.Approver) (approver.Approver, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return approver.Approver{}, err
	}
	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO approvers (name, email, role, company, region, branch, department, centralized, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		a.Name(),
		a.Email(),
		string(a.Role()),
		a.Scope().Company,
		a.Scope().Region,
		a.Scope().Branch,
		a.Scope().Department,
		a.IsCentralized(),
		a.IsActive(),
	).Scan(&id)
	if err != nil {
		return approver.Approver{}, err
	}
	created, err := uuid.Parse(id)
	if err != nil {
		return approver.Approver{}, err
	}
	return r.GetByID(ctx, created)
}

func scanApprover(row pgx.Row) (approver.Approver, error) {
	var m models.Approver
	if err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Role,
		&m.Company, &m.Region, &m.Branch, &m.Department,
		&m.Centralized, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return approver.Approver{}, err
	}
	return toDomainApprover(&m)
}
