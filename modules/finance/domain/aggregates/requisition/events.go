package requisition

import (
	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
)

type CreatedEvent struct {
	Result Requisition
}

func NewCreatedEvent(result Requisition) *CreatedEvent {
	return &CreatedEvent{Result: result}
}

type ApprovedEvent struct {
	Result  Requisition
	ActorID uuid.UUID
	// Final marks the approval that completed the sequence.
	Final bool
}

func NewApprovedEvent(result Requisition, actorID uuid.UUID, final bool) *ApprovedEvent {
	return &ApprovedEvent{Result: result, ActorID: actorID, Final: final}
}

type RejectedEvent struct {
	Result  Requisition
	ActorID uuid.UUID
	Comment string
}

func NewRejectedEvent(result Requisition, actorID uuid.UUID, comment string) *RejectedEvent {
	return &RejectedEvent{Result: result, ActorID: actorID, Comment: comment}
}

type UrgencyConfirmedEvent struct {
	Result    Requisition
	ActorID   uuid.UUID
	Confirmed bool
	Skipped   []approver.Role
}

func NewUrgencyConfirmedEvent(result Requisition, actorID uuid.UUID, confirmed bool, skipped []approver.Role) *UrgencyConfirmedEvent {
	return &UrgencyConfirmedEvent{Result: result, ActorID: actorID, Confirmed: confirmed, Skipped: skipped}
}

type OverriddenEvent struct {
	Result        Requisition
	ActorID       uuid.UUID
	Justification string
}

func NewOverriddenEvent(result Requisition, actorID uuid.UUID, justification string) *OverriddenEvent {
	return &OverriddenEvent{Result: result, ActorID: actorID, Justification: justification}
}
