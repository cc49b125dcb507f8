package requisition

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

type Status string

const (
	StatusDraft                      Status = "draft"
	StatusPending                    Status = "pending"
	StatusPendingUrgencyConfirmation Status = "pending_urgency_confirmation"
	StatusReviewed                   Status = "reviewed"
	StatusPaid                       Status = "paid"
	StatusRejected                   Status = "rejected"
)

func (s Status) IsTerminal() bool {
	return s == StatusReviewed || s == StatusPaid || s == StatusRejected
}

var (
	ErrSelfApproval = serrors.NewError(
		"FINANCE_AUTHORIZATION_SELF_APPROVAL",
		"requester cannot act on their own requisition",
		"Finance.Errors.SelfApproval",
	)
	ErrNotCurrentApprover = serrors.NewError(
		"FINANCE_AUTHORIZATION_NOT_CURRENT_APPROVER",
		"actor is not the current approver",
		"Finance.Errors.NotCurrentApprover",
	)
	ErrTerminalState = serrors.NewError(
		"FINANCE_VALIDATION_TERMINAL_STATE",
		"requisition is already in a terminal state",
		"Finance.Errors.TerminalState",
	)
	ErrInvalidTransition = serrors.NewError(
		"FINANCE_VALIDATION_INVALID_TRANSITION",
		"transition not allowed from current status",
		"Finance.Errors.InvalidTransition",
	)
	ErrEmptyWorkflow = serrors.NewError(
		"FINANCE_CONFIGURATION_EMPTY_WORKFLOW",
		"resolved workflow has no approvers",
		"Finance.Errors.EmptyWorkflow",
	)
	ErrJustificationRequired = serrors.NewError(
		"FINANCE_VALIDATION_JUSTIFICATION_REQUIRED",
		"override requires a non-empty justification",
		"Finance.Errors.JustificationRequired",
	)
)

// Requisition is a request to spend funds, owned by the workflow subsystem
// from submission until a terminal state. All mutation goes through the
// transition methods below; the requester never touches it directly.
type Requisition struct {
	id             uuid.UUID
	requesterID    uuid.UUID
	origin         threshold.OriginScope
	scope          orgscope.Scope
	amount         decimal.Decimal
	purpose        string
	method         string
	destination    string
	urgent         bool
	tierName       string
	allowFastTrack bool
	sequence       []WorkflowStep
	stepIndex      int
	status         Status
	createdAt      time.Time
	updatedAt      time.Time
}

func New(
	requesterID uuid.UUID,
	origin threshold.OriginScope,
	scope orgscope.Scope,
	amount decimal.Decimal,
	purpose string,
	method string,
	destination string,
	urgent bool,
) Requisition {
	return Requisition{
		requesterID: requesterID,
		origin:      origin,
		scope:       scope,
		amount:      amount,
		purpose:     purpose,
		method:      method,
		destination: destination,
		urgent:      urgent,
		status:      StatusDraft,
	}
}

func Hydrate(
	id uuid.UUID,
	requesterID uuid.UUID,
	origin threshold.OriginScope,
	scope orgscope.Scope,
	amount decimal.Decimal,
	purpose string,
	method string,
	destination string,
	urgent bool,
	tierName string,
	allowFastTrack bool,
	sequence []WorkflowStep,
	stepIndex int,
	status Status,
	createdAt time.Time,
	updatedAt time.Time,
) Requisition {
	return Requisition{
		id:             id,
		requesterID:    requesterID,
		origin:         origin,
		scope:          scope,
		amount:         amount,
		purpose:        purpose,
		method:         method,
		destination:    destination,
		urgent:         urgent,
		tierName:       tierName,
		allowFastTrack: allowFastTrack,
		sequence:       sequence,
		stepIndex:      stepIndex,
		status:         status,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (r Requisition) ID() uuid.UUID                 { return r.id }
func (r Requisition) RequesterID() uuid.UUID        { return r.requesterID }
func (r Requisition) Origin() threshold.OriginScope { return r.origin }
func (r Requisition) Scope() orgscope.Scope         { return r.scope }
func (r Requisition) Amount() decimal.Decimal       { return r.amount }
func (r Requisition) Purpose() string               { return r.purpose }
func (r Requisition) Method() string                { return r.method }
func (r Requisition) Destination() string           { return r.destination }
func (r Requisition) IsUrgent() bool                { return r.urgent }
func (r Requisition) TierName() string              { return r.tierName }
func (r Requisition) AllowFastTrack() bool          { return r.allowFastTrack }
func (r Requisition) StepIndex() int                { return r.stepIndex }
func (r Requisition) Status() Status                { return r.status }
func (r Requisition) CreatedAt() time.Time          { return r.createdAt }
func (r Requisition) UpdatedAt() time.Time          { return r.updatedAt }

func (r Requisition) Sequence() []WorkflowStep {
	out := make([]WorkflowStep, len(r.sequence))
	copy(out, r.sequence)
	return out
}

// CurrentStep returns the step NextApprover points at.
func (r Requisition) CurrentStep() (WorkflowStep, bool) {
	if r.stepIndex < 0 || r.stepIndex >= len(r.sequence) {
		return WorkflowStep{}, false
	}
	return r.sequence[r.stepIndex], true
}

// NextApprover is always re-derived from the persisted sequence and step
// index; it is never cached anywhere else.
func (r Requisition) NextApprover() uuid.UUID {
	step, ok := r.CurrentStep()
	if !ok {
		return uuid.Nil
	}
	return step.ApproverID
}

// CanApprove holds even under direct state manipulation: self-approval is
// rejected unconditionally, then the actor must match the derived
// NextApprover on a non-terminal requisition.
func (r Requisition) CanApprove(actorID uuid.UUID) bool {
	if actorID == uuid.Nil || actorID == r.requesterID {
		return false
	}
	if r.status.IsTerminal() {
		return false
	}
	return r.NextApprover() == actorID
}

// ApplyWorkflow attaches the resolved approver sequence. Urgent requisitions
// park in urgency confirmation; everything else goes straight to pending.
func (r *Requisition) ApplyWorkflow(tierName string, allowFastTrack bool, sequence []WorkflowStep) error {
	if r.status != StatusDraft {
		return ErrInvalidTransition.WithDetail(string(r.status))
	}
	if len(sequence) == 0 {
		return ErrEmptyWorkflow
	}
	r.tierName = tierName
	r.allowFastTrack = allowFastTrack
	r.sequence = sequence
	r.stepIndex = 0
	if r.urgent {
		r.status = StatusPendingUrgencyConfirmation
	} else {
		r.status = StatusPending
	}
	return nil
}

// Advance moves the workflow one step forward on behalf of actorID and
// reports whether the final step was just satisfied.
func (r *Requisition) Advance(actorID uuid.UUID) (bool, error) {
	if err := r.guardActor(actorID); err != nil {
		return false, err
	}
	if r.status != StatusPending {
		return false, ErrInvalidTransition.WithDetail(string(r.status))
	}
	if r.stepIndex+1 < len(r.sequence) {
		r.stepIndex++
		return false, nil
	}
	r.markReviewed()
	return true, nil
}

// Reject transitions to rejected and clears the workflow.
func (r *Requisition) Reject(actorID uuid.UUID) error {
	if err := r.guardActor(actorID); err != nil {
		return err
	}
	if r.status != StatusPending && r.status != StatusPendingUrgencyConfirmation {
		return ErrInvalidTransition.WithDetail(string(r.status))
	}
	r.status = StatusRejected
	r.clearWorkflow()
	return nil
}

// ConfirmUrgency moves a confirmed-urgent requisition into the pending flow.
// The fast-track collapse itself happens in FastTrack before this is called.
func (r *Requisition) ConfirmUrgency() error {
	if r.status != StatusPendingUrgencyConfirmation {
		return ErrInvalidTransition.WithDetail(string(r.status))
	}
	r.status = StatusPending
	return nil
}

// DenyUrgency rejects the requisition outright. The original sequence order
// stays in the audit trail; the live workflow is cleared.
func (r *Requisition) DenyUrgency() error {
	if r.status != StatusPendingUrgencyConfirmation {
		return ErrInvalidTransition.WithDetail(string(r.status))
	}
	r.status = StatusRejected
	r.clearWorkflow()
	return nil
}

// FastTrack collapses a multi-step sequence to its final entry for urgent
// requisitions, when the applied tier allows it and is not the ceiling tier.
// Returns the roles skipped by the collapse.
func (r *Requisition) FastTrack(noFastTrackTier string) []approver.Role {
	if !r.urgent || !r.allowFastTrack || r.tierName == noFastTrackTier {
		return nil
	}
	if len(r.sequence) <= 1 {
		return nil
	}
	skipped := make([]approver.Role, 0, len(r.sequence)-1)
	for _, step := range r.sequence[:len(r.sequence)-1] {
		skipped = append(skipped, step.Role)
	}
	r.sequence = r.sequence[len(r.sequence)-1:]
	r.stepIndex = 0
	return skipped
}

// Override forces review from any non-terminal state. Authorization and the
// justification requirement are enforced by the caller.
func (r *Requisition) Override() error {
	if r.status.IsTerminal() {
		return ErrTerminalState.WithDetail(string(r.status))
	}
	r.markReviewed()
	return nil
}

// MarkPaid records the downstream payment execution.
func (r *Requisition) MarkPaid() error {
	if r.status != StatusReviewed {
		return ErrInvalidTransition.WithDetail(string(r.status))
	}
	r.status = StatusPaid
	return nil
}

func (r *Requisition) guardActor(actorID uuid.UUID) error {
	if actorID == r.requesterID {
		return ErrSelfApproval
	}
	if r.status.IsTerminal() {
		return ErrTerminalState.WithDetail(string(r.status))
	}
	if r.NextApprover() != actorID {
		return ErrNotCurrentApprover
	}
	return nil
}

func (r *Requisition) markReviewed() {
	r.status = StatusReviewed
	r.clearWorkflow()
}

func (r *Requisition) clearWorkflow() {
	r.sequence = nil
	r.stepIndex = -1
}
