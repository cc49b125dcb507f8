package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
	"github.com/iota-uz/spendflow/pkg/composables"
)

const trailColumns = `
	id, requisition_id, actor_id, actor_role, action, comment,
	escalated, skipped_roles, override, created_at`

// ApprovalTrailRepository is append-only; the table has no UPDATE or DELETE
// path at all.
type ApprovalTrailRepository struct{}

func NewApprovalTrailRepository() approvaltrail.Repository {
	return &ApprovalTrailRepository{}
}

func (r *ApprovalTrailRepository) Create(ctx context.Context, entry approvaltrail.Entry) (approvaltrail.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return approvaltrail.Entry{}, err
	}
	skipped, err := skippedRolesJSON(entry.SkippedRoles())
	if err != nil {
		return approvaltrail.Entry{}, err
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO approval_trail (
			requisition_id, actor_id, actor_role, action, comment,
			escalated, skipped_roles, override
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+trailColumns,
		entry.RequisitionID().String(),
		entry.ActorID().String(),
		string(entry.Role()),
		string(entry.Action()),
		entry.Comment(),
		entry.AutoEscalated(),
		skipped,
		entry.IsOverride(),
	)
	return scanTrailEntry(row)
}

func (r *ApprovalTrailRepository) ListByRequisition(ctx context.Context, requisitionID uuid.UUID) ([]approvaltrail.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT `+trailColumns+`
		FROM approval_trail
		WHERE requisition_id = $1
		ORDER BY created_at, id`,
		requisitionID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []approvaltrail.Entry
	for rows.Next() {
		entry, err := scanTrailEntry(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func scanTrailEntry(row pgx.Row) (approvaltrail.Entry, error) {
	var m models.ApprovalTrailEntry
	if err := row.Scan(
		&m.ID, &m.RequisitionID, &m.ActorID, &m.ActorRole, &m.Action,
		&m.Comment, &m.Escalated, &m.SkippedRoles, &m.Override, &m.CreatedAt,
	); err != nil {
		return approvaltrail.Entry{}, err
	}
	return toDomainTrailEntry(&m)
}
