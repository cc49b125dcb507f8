package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/composables"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

// inTx is a seam so service tests can run transitions without a database.
var inTx = composables.InTx

var ErrNoFallbackApprover = serrors.NewError(
	"FINANCE_CONFIGURATION_NO_FALLBACK_APPROVER",
	"no fallback approver is configured; cannot escalate",
	"Finance.Errors.NoFallbackApprover",
)

// FallbackPolicy is the single place escalation goes through when a required
// role has no scoped holder. Call sites never query for fallbacks ad hoc.
type FallbackPolicy interface {
	FallbackApprover(ctx context.Context, scope orgscope.Scope, excluding uuid.UUID) (approver.Approver, error)
}

// RoleChainFallback walks a configured role chain (admin first, then a
// superuser equivalent) and picks the first active holder.
type RoleChainFallback struct {
	directory approver.Directory
	chain     []approver.Role
}

func NewRoleChainFallback(directory approver.Directory, chain ...approver.Role) *RoleChainFallback {
	if len(chain) == 0 {
		chain = []approver.Role{approver.RoleAdmin, approver.RoleSuperuser}
	}
	return &RoleChainFallback{directory: directory, chain: chain}
}

func (f *RoleChainFallback) FallbackApprover(ctx context.Context, scope orgscope.Scope, excluding uuid.UUID) (approver.Approver, error) {
	for _, role := range f.chain {
		candidates, err := f.directory.FindActiveByRole(ctx, role, role.Narrow(scope))
		if err != nil {
			return approver.Approver{}, err
		}
		for _, candidate := range candidates {
			if candidate.ID() != excluding {
				return candidate, nil
			}
		}
	}
	return approver.Approver{}, ErrNoFallbackApprover
}

// WorkflowResolver turns a draft requisition into an ordered approver
// sequence. It is an explicit command invoked by the creation use case,
// never a persistence side effect, and is side-effect-free apart from
// writing the resolved sequence onto the requisition.
type WorkflowResolver struct {
	catalog   threshold.Catalog
	directory approver.Directory
	fallback  FallbackPolicy
}

func NewWorkflowResolver(
	catalog threshold.Catalog,
	directory approver.Directory,
	fallback FallbackPolicy,
) *WorkflowResolver {
	return &WorkflowResolver{
		catalog:   catalog,
		directory: directory,
		fallback:  fallback,
	}
}

// Resolve matches the threshold, builds one step per configured role and
// applies the workflow. A role with no scoped active holder escalates to the
// fallback approver; a missing threshold or missing fallback is a
// configuration fault that aborts resolution.
func (wr *WorkflowResolver) Resolve(ctx context.Context, r *requisition.Requisition) error {
	tier, err := wr.catalog.Match(r.Amount(), r.Origin())
	if err != nil {
		return err
	}

	steps := make([]requisition.WorkflowStep, 0, len(tier.Roles()))
	for _, role := range tier.Roles() {
		assignee, escalated, err := wr.resolveRole(ctx, role, r)
		if err != nil {
			return err
		}
		steps = append(steps, requisition.WorkflowStep{
			ApproverID:    assignee.ID(),
			Role:          role,
			AutoEscalated: escalated,
		})
	}

	return r.ApplyWorkflow(tier.Name(), tier.AllowUrgentFastTrack(), steps)
}

func (wr *WorkflowResolver) resolveRole(
	ctx context.Context,
	role approver.Role,
	r *requisition.Requisition,
) (approver.Approver, bool, error) {
	candidates, err := wr.directory.FindActiveByRole(ctx, role, role.Narrow(r.Scope()))
	if err != nil {
		return approver.Approver{}, false, err
	}
	for _, candidate := range candidates {
		// No self-approval, ever.
		if candidate.ID() == r.RequesterID() {
			continue
		}
		return candidate, false, nil
	}

	fallback, err := wr.fallback.FallbackApprover(ctx, r.Scope(), r.RequesterID())
	if err != nil {
		return approver.Approver{}, false, err
	}
	return fallback, true, nil
}
