package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
	"github.com/iota-uz/spendflow/pkg/composables"
	"github.com/iota-uz/spendflow/pkg/repo"
)

const requisitionColumns = `
	id, requester_id, origin, company, region, branch, department,
	amount::text, purpose, method, destination, urgent,
	tier_name, allow_fast_track, workflow, step_index, status,
	created_at, updated_at`

type RequisitionRepository struct{}

func NewRequisitionRepository() requisition.Repository {
	return &RequisitionRepository{}
}

func (r *RequisitionRepository) Create(ctx context.Context, data requisition.Requisition) (requisition.Requisition, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return requisition.Requisition{}, err
	}
	workflow, err := workflowJSON(data.Sequence())
	if err != nil {
		return requisition.Requisition{}, err
	}
	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO requisitions (
			requester_id, origin, company, region, branch, department,
			amount, purpose, method, destination, urgent,
			tier_name, allow_fast_track, workflow, step_index, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`,
		data.RequesterID().String(),
		string(data.Origin()),
		data.Scope().Company,
		data.Scope().Region,
		data.Scope().Branch,
		data.Scope().Department,
		data.Amount().String(),
		data.Purpose(),
		data.Method(),
		data.Destination(),
		data.IsUrgent(),
		data.TierName(),
		data.AllowFastTrack(),
		workflow,
		int32(data.StepIndex()),
		string(data.Status()),
	).Scan(&id)
	if err != nil {
		return requisition.Requisition{}, err
	}
	created, err := uuid.Parse(id)
	if err != nil {
		return requisition.Requisition{}, err
	}
	return r.GetByID(ctx, created)
}

func (r *RequisitionRepository) GetByID(ctx context.Context, id uuid.UUID) (requisition.Requisition, error) {
	return r.getBy(ctx, `WHERE id = $1`, id.String())
}

func (r *RequisitionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (requisition.Requisition, error) {
	return r.getBy(ctx, `WHERE id = $1 FOR UPDATE`, id.String())
}

func (r *RequisitionRepository) getBy(ctx context.Context, clause string, args ...interface{}) (requisition.Requisition, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return requisition.Requisition{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+requisitionColumns+` FROM requisitions `+clause, args...)
	result, err := scanRequisition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return requisition.Requisition{}, requisition.ErrNotFound
		}
		return requisition.Requisition{}, err
	}
	return result, nil
}

func (r *RequisitionRepository) Update(ctx context.Context, data requisition.Requisition) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	workflow, err := workflowJSON(data.Sequence())
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE requisitions
		SET tier_name = $2,
			allow_fast_track = $3,
			workflow = $4,
			step_index = $5,
			status = $6,
			updated_at = now()
		WHERE id = $1`,
		data.ID().String(),
		data.TierName(),
		data.AllowFastTrack(),
		workflow,
		int32(data.StepIndex()),
		string(data.Status()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return requisition.ErrNotFound
	}
	return nil
}

func (r *RequisitionRepository) GetPaginated(ctx context.Context, params *requisition.FindParams) ([]requisition.Requisition, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = &requisition.FindParams{}
	}

	where := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(params.Status))
		argPos++
	}
	if params.RequesterID != uuid.Nil {
		where = append(where, fmt.Sprintf("requester_id = $%d", argPos))
		args = append(args, params.RequesterID.String())
		argPos++
	}
	if params.NextApprover != uuid.Nil {
		// The next approver is sequence[step_index]; the workflow column keeps
		// the same derivation queryable.
		where = append(where, fmt.Sprintf("workflow -> step_index ->> 'approver_id' = $%d", argPos))
		args = append(args, params.NextApprover.String())
		argPos++
	}

	query := `SELECT ` + requisitionColumns + ` FROM requisitions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC ` + repo.FormatLimitOffset(params.Limit, params.Offset)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []requisition.Requisition
	for rows.Next() {
		result, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanRequisition(row pgx.Row) (requisition.Requisition, error) {
	var m models.Requisition
	if err := row.Scan(
		&m.ID, &m.RequesterID, &m.Origin,
		&m.Company, &m.Region, &m.Branch, &m.Department,
		&m.Amount, &m.Purpose, &m.Method, &m.Destination, &m.Urgent,
		&m.TierName, &m.AllowFastTrack, &m.Workflow, &m.StepIndex, &m.Status,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return requisition.Requisition{}, err
	}
	return toDomainRequisition(&m)
}
