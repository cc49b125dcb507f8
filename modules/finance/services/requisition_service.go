package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/pkg/configuration"
	"github.com/iota-uz/spendflow/pkg/eventbus"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

var ErrOverrideRestricted = serrors.NewError(
	"FINANCE_AUTHORIZATION_OVERRIDE_RESTRICTED",
	"only admin or superuser actors may override a workflow",
	"Finance.Errors.OverrideRestricted",
)

// RequisitionService owns every requisition status transition. Each
// transition runs in one transaction holding the requisition row lock, so
// two approvers can never advance the same step concurrently or create the
// terminal payment twice.
type RequisitionService struct {
	repo      requisition.Repository
	trail     approvaltrail.Repository
	payments  payment.Repository
	directory approver.Directory
	resolver  *WorkflowResolver
	publisher eventbus.EventBus
	conf      configuration.FinanceOptions
}

func NewRequisitionService(
	repo requisition.Repository,
	trail approvaltrail.Repository,
	payments payment.Repository,
	directory approver.Directory,
	resolver *WorkflowResolver,
	publisher eventbus.EventBus,
	conf configuration.FinanceOptions,
) *RequisitionService {
	return &RequisitionService{
		repo:      repo,
		trail:     trail,
		payments:  payments,
		directory: directory,
		resolver:  resolver,
		publisher: publisher,
		conf:      conf,
	}
}

func (s *RequisitionService) GetByID(ctx context.Context, id uuid.UUID) (requisition.Requisition, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RequisitionService) GetPaginated(ctx context.Context, params *requisition.FindParams) ([]requisition.Requisition, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *RequisitionService) Trail(ctx context.Context, id uuid.UUID) ([]approvaltrail.Entry, error) {
	return s.trail.ListByRequisition(ctx, id)
}

// Create resolves the workflow and persists the requisition in one
// transaction. Resolution failures (no threshold, no fallback) abort the
// creation entirely.
func (s *RequisitionService) Create(ctx context.Context, data *requisition.CreateDTO) (requisition.Requisition, error) {
	entity, err := data.ToEntity()
	if err != nil {
		return requisition.Requisition{}, err
	}

	var created requisition.Requisition
	err = inTx(ctx, func(txCtx context.Context) error {
		if err := s.resolver.Resolve(txCtx, &entity); err != nil {
			return err
		}
		created, err = s.repo.Create(txCtx, entity)
		return err
	})
	if err != nil {
		return requisition.Requisition{}, err
	}
	s.publisher.Publish(requisition.NewCreatedEvent(created))
	return created, nil
}

// Approve advances the workflow one step on behalf of actorID. The final
// approval flips the requisition to reviewed and creates its payment with
// two-factor verification required.
func (s *RequisitionService) Approve(ctx context.Context, id, actorID uuid.UUID, comment string) (requisition.Requisition, error) {
	var (
		result requisition.Requisition
		final  bool
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		actor, err := s.directory.GetByID(txCtx, actorID)
		if err != nil {
			return err
		}

		step, _ := r.CurrentStep()
		final, err = r.Advance(actorID)
		if err != nil {
			return err
		}
		if final {
			if err := s.createPayment(txCtx, r); err != nil {
				return err
			}
		}
		if err := s.repo.Update(txCtx, r); err != nil {
			return err
		}

		entry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionApproved).
			WithComment(comment)
		if step.AutoEscalated {
			entry = entry.WithEscalation([]approver.Role{step.Role})
		}
		if _, err := s.trail.Create(txCtx, entry); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return requisition.Requisition{}, err
	}
	s.publisher.Publish(requisition.NewApprovedEvent(result, actorID, final))
	return result, nil
}

// Reject moves the requisition to rejected and clears the live workflow.
func (s *RequisitionService) Reject(ctx context.Context, id, actorID uuid.UUID, comment string) (requisition.Requisition, error) {
	var result requisition.Requisition
	err := inTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		actor, err := s.directory.GetByID(txCtx, actorID)
		if err != nil {
			return err
		}
		if err := r.Reject(actorID); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, r); err != nil {
			return err
		}
		entry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionRejected).
			WithComment(comment)
		if _, err := s.trail.Create(txCtx, entry); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return requisition.Requisition{}, err
	}
	s.publisher.Publish(requisition.NewRejectedEvent(result, actorID, comment))
	return result, nil
}

// ConfirmUrgency decides the urgency claim. Confirmation re-applies the
// fast-track collapse and resumes the pending flow; if the collapsed single
// step belongs to the confirming actor it is satisfied immediately. Denial
// rejects the requisition; the uncollapsed order stays in the trail.
func (s *RequisitionService) ConfirmUrgency(ctx context.Context, id, actorID uuid.UUID, confirm bool, comment string) (requisition.Requisition, error) {
	var (
		result  requisition.Requisition
		skipped []approver.Role
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		actor, err := s.directory.GetByID(txCtx, actorID)
		if err != nil {
			return err
		}
		if !r.CanApprove(actorID) {
			if actorID == r.RequesterID() {
				return requisition.ErrSelfApproval
			}
			if r.Status().IsTerminal() {
				return requisition.ErrTerminalState.WithDetail(string(r.Status()))
			}
			return requisition.ErrNotCurrentApprover
		}

		if !confirm {
			if err := r.DenyUrgency(); err != nil {
				return err
			}
			if err := s.repo.Update(txCtx, r); err != nil {
				return err
			}
			entry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionRejected).
				WithComment(comment)
			if _, err := s.trail.Create(txCtx, entry); err != nil {
				return err
			}
			result = r
			return nil
		}

		skipped = r.FastTrack(s.conf.NoFastTrackTier)
		if err := r.ConfirmUrgency(); err != nil {
			return err
		}

		entry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionUrgencyConfirmed).
			WithComment(comment).
			WithSkippedRoles(skipped)
		if _, err := s.trail.Create(txCtx, entry); err != nil {
			return err
		}

		// The collapsed sequence may leave the confirming actor as the only
		// remaining approver; their confirmation satisfies it on the spot.
		if r.CanApprove(actorID) && r.NextApprover() == actorID && len(r.Sequence()) == 1 {
			final, err := r.Advance(actorID)
			if err != nil {
				return err
			}
			if final {
				if err := s.createPayment(txCtx, r); err != nil {
					return err
				}
				approveEntry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionApproved)
				if _, err := s.trail.Create(txCtx, approveEntry); err != nil {
					return err
				}
			}
		}

		if err := s.repo.Update(txCtx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return requisition.Requisition{}, err
	}
	s.publisher.Publish(requisition.NewUrgencyConfirmedEvent(result, actorID, confirm, skipped))
	return result, nil
}

// AdminOverride forces the requisition to reviewed regardless of remaining
// steps. Restricted to admin or superuser actors and always requires a
// justification; the trail entry carries the override flag.
func (s *RequisitionService) AdminOverride(ctx context.Context, id, actorID uuid.UUID, justification string) (requisition.Requisition, error) {
	if strings.TrimSpace(justification) == "" {
		return requisition.Requisition{}, requisition.ErrJustificationRequired
	}

	var result requisition.Requisition
	err := inTx(ctx, func(txCtx context.Context) error {
		actor, err := s.directory.GetByID(txCtx, actorID)
		if err != nil {
			return err
		}
		if actor.Role() != approver.RoleAdmin && actor.Role() != approver.RoleSuperuser {
			return ErrOverrideRestricted
		}
		r, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := r.Override(); err != nil {
			return err
		}
		if err := s.createPayment(txCtx, r); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, r); err != nil {
			return err
		}
		entry := approvaltrail.New(r.ID(), actorID, actor.Role(), approvaltrail.ActionApproved).
			WithComment(justification).
			AsOverride()
		if _, err := s.trail.Create(txCtx, entry); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return requisition.Requisition{}, err
	}
	s.publisher.Publish(requisition.NewOverriddenEvent(result, actorID, justification))
	return result, nil
}

func (s *RequisitionService) createPayment(ctx context.Context, r requisition.Requisition) error {
	method := payment.Method(r.Method())
	if method == "" {
		method = payment.MethodBankTransfer
	}
	p := payment.New(
		r.ID(),
		r.RequesterID(),
		r.Scope(),
		r.Amount(),
		method,
		r.Destination(),
		s.conf.PaymentMaxRetries,
	)
	_, err := s.payments.Create(ctx, p)
	return err
}
