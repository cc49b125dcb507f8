package requisition

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/pkg/serrors"
)

var ErrNotFound = serrors.NewError(
	"FINANCE_REQUISITION_NOT_FOUND",
	"requisition not found",
	"Finance.Errors.RequisitionNotFound",
)

type FindParams struct {
	Status       Status
	NextApprover uuid.UUID
	RequesterID  uuid.UUID
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, r Requisition) (Requisition, error)
	GetByID(ctx context.Context, id uuid.UUID) (Requisition, error)
	// GetByIDForUpdate takes the row lock that serializes workflow
	// advancement; callers must hold an open transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Requisition, error)
	Update(ctx context.Context, r Requisition) error
	GetPaginated(ctx context.Context, params *FindParams) ([]Requisition, error)
}
