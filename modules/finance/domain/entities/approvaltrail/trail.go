package approvaltrail

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
)

type Action string

const (
	ActionApproved         Action = "approved"
	ActionRejected         Action = "rejected"
	ActionUrgencyConfirmed Action = "urgency_confirmed"
)

// Entry is one immutable line of the approval trail. The trail is the sole
// source of truth for what happened to a requisition and why, so entries are
// only ever appended.
type Entry struct {
	id            uuid.UUID
	requisitionID uuid.UUID
	actorID       uuid.UUID
	role          approver.Role
	action        Action
	comment       string
	autoEscalated bool
	skippedRoles  []approver.Role
	isOverride    bool
	createdAt     time.Time
}

func New(requisitionID, actorID uuid.UUID, role approver.Role, action Action) Entry {
	return Entry{
		requisitionID: requisitionID,
		actorID:       actorID,
		role:          role,
		action:        action,
	}
}

func (e Entry) WithComment(comment string) Entry {
	e.comment = comment
	return e
}

func (e Entry) WithEscalation(skipped []approver.Role) Entry {
	e.autoEscalated = true
	e.skippedRoles = skipped
	return e
}

func (e Entry) WithSkippedRoles(skipped []approver.Role) Entry {
	e.skippedRoles = skipped
	return e
}

func (e Entry) AsOverride() Entry {
	e.isOverride = true
	return e
}

func Hydrate(
	id uuid.UUID,
	requisitionID uuid.UUID,
	actorID uuid.UUID,
	role approver.Role,
	action Action,
	comment string,
	autoEscalated bool,
	skippedRoles []approver.Role,
	isOverride bool,
	createdAt time.Time,
) Entry {
	return Entry{
		id:            id,
		requisitionID: requisitionID,
		actorID:       actorID,
		role:          role,
		action:        action,
		comment:       comment,
		autoEscalated: autoEscalated,
		skippedRoles:  skippedRoles,
		isOverride:    isOverride,
		createdAt:     createdAt,
	}
}

func (e Entry) ID() uuid.UUID            { return e.id }
func (e Entry) RequisitionID() uuid.UUID { return e.requisitionID }
func (e Entry) ActorID() uuid.UUID       { return e.actorID }
func (e Entry) Role() approver.Role      { return e.role }
func (e Entry) Action() Action           { return e.action }
func (e Entry) Comment() string          { return e.comment }
func (e Entry) AutoEscalated() bool      { return e.autoEscalated }
func (e Entry) IsOverride() bool         { return e.isOverride }
func (e Entry) CreatedAt() time.Time     { return e.createdAt }

func (e Entry) SkippedRoles() []approver.Role {
	out := make([]approver.Role, len(e.skippedRoles))
	copy(out, e.skippedRoles)
	return out
}

// Repository is append-only on purpose: no update, no delete.
type Repository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	ListByRequisition(ctx context.Context, requisitionID uuid.UUID) ([]Entry, error)
}
