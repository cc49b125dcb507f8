package requisition_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
)

var (
	requesterID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	managerID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	financeID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func draft(urgent bool) requisition.Requisition {
	return requisition.New(
		requesterID, threshold.OriginBranch,
		orgscope.Scope{Company: "acme", Region: "north", Branch: "b-01"},
		decimal.RequireFromString("5000.00"),
		"field supplies", "bank_transfer", "ACC-001", urgent,
	)
}

func twoSteps() []requisition.WorkflowStep {
	return []requisition.WorkflowStep{
		{ApproverID: managerID, Role: approver.RoleBranchManager},
		{ApproverID: financeID, Role: approver.RoleFinanceOfficer},
	}
}

func applied(t *testing.T, urgent bool) requisition.Requisition {
	t.Helper()
	r := draft(urgent)
	require.NoError(t, r.ApplyWorkflow("tier-2", true, twoSteps()))
	return r
}

func TestApplyWorkflow(t *testing.T) {
	r := draft(false)
	require.NoError(t, r.ApplyWorkflow("tier-2", true, twoSteps()))
	assert.Equal(t, requisition.StatusPending, r.Status())
	assert.Equal(t, managerID, r.NextApprover())

	err := r.ApplyWorkflow("tier-2", true, twoSteps())
	require.ErrorIs(t, err, requisition.ErrInvalidTransition)
}

func TestApplyWorkflow_UrgentParks(t *testing.T) {
	r := draft(true)
	require.NoError(t, r.ApplyWorkflow("tier-2", true, twoSteps()))
	assert.Equal(t, requisition.StatusPendingUrgencyConfirmation, r.Status())
}

func TestApplyWorkflow_EmptySequenceRefused(t *testing.T) {
	r := draft(false)
	err := r.ApplyWorkflow("tier-2", true, nil)
	require.ErrorIs(t, err, requisition.ErrEmptyWorkflow)
	assert.Equal(t, requisition.StatusDraft, r.Status())
}

func TestAdvance(t *testing.T) {
	r := applied(t, false)

	final, err := r.Advance(managerID)
	require.NoError(t, err)
	assert.False(t, final)
	assert.Equal(t, financeID, r.NextApprover())

	final, err = r.Advance(financeID)
	require.NoError(t, err)
	assert.True(t, final)
	assert.Equal(t, requisition.StatusReviewed, r.Status())
	assert.Empty(t, r.Sequence())
	assert.Equal(t, uuid.Nil, r.NextApprover())
}

func TestAdvance_GuardsActor(t *testing.T) {
	r := applied(t, false)

	_, err := r.Advance(requesterID)
	require.ErrorIs(t, err, requisition.ErrSelfApproval)

	_, err = r.Advance(financeID)
	require.ErrorIs(t, err, requisition.ErrNotCurrentApprover)

	_, err = r.Advance(uuid.Nil)
	require.ErrorIs(t, err, requisition.ErrNotCurrentApprover)
}

func TestReject(t *testing.T) {
	r := applied(t, false)
	require.NoError(t, r.Reject(managerID))
	assert.Equal(t, requisition.StatusRejected, r.Status())
	assert.Empty(t, r.Sequence())

	_, err := r.Advance(managerID)
	require.ErrorIs(t, err, requisition.ErrTerminalState)
	err = r.Reject(managerID)
	require.ErrorIs(t, err, requisition.ErrTerminalState)
}

func TestCanApprove(t *testing.T) {
	r := applied(t, false)

	assert.True(t, r.CanApprove(managerID))
	assert.False(t, r.CanApprove(financeID))
	assert.False(t, r.CanApprove(requesterID))
	assert.False(t, r.CanApprove(uuid.Nil))

	require.NoError(t, r.Reject(managerID))
	assert.False(t, r.CanApprove(managerID))
}

func TestFastTrack_CollapsesToFinalStep(t *testing.T) {
	r := applied(t, true)

	skipped := r.FastTrack("executive")
	assert.Equal(t, []approver.Role{approver.RoleBranchManager}, skipped)
	require.Len(t, r.Sequence(), 1)
	assert.Equal(t, financeID, r.NextApprover())
}

func TestFastTrack_NoOps(t *testing.T) {
	// Non-urgent requisitions keep the full sequence.
	r := applied(t, false)
	assert.Nil(t, r.FastTrack("executive"))
	assert.Len(t, r.Sequence(), 2)

	// The ceiling tier never collapses.
	ceiling := draft(true)
	require.NoError(t, ceiling.ApplyWorkflow("executive", false, twoSteps()))
	assert.Nil(t, ceiling.FastTrack("executive"))
	assert.Len(t, ceiling.Sequence(), 2)

	// A single-step sequence has nothing to skip.
	single := draft(true)
	require.NoError(t, single.ApplyWorkflow("tier-1", true, twoSteps()[:1]))
	assert.Nil(t, single.FastTrack("executive"))
	assert.Len(t, single.Sequence(), 1)
}

func TestConfirmAndDenyUrgency(t *testing.T) {
	r := applied(t, true)
	require.NoError(t, r.ConfirmUrgency())
	assert.Equal(t, requisition.StatusPending, r.Status())
	require.ErrorIs(t, r.ConfirmUrgency(), requisition.ErrInvalidTransition)

	d := applied(t, true)
	require.NoError(t, d.DenyUrgency())
	assert.Equal(t, requisition.StatusRejected, d.Status())
	assert.Empty(t, d.Sequence())
}

func TestOverride(t *testing.T) {
	r := applied(t, false)
	require.NoError(t, r.Override())
	assert.Equal(t, requisition.StatusReviewed, r.Status())
	assert.Empty(t, r.Sequence())

	require.ErrorIs(t, r.Override(), requisition.ErrTerminalState)
}

func TestMarkPaid(t *testing.T) {
	r := applied(t, false)
	require.ErrorIs(t, r.MarkPaid(), requisition.ErrInvalidTransition)

	require.NoError(t, r.Override())
	require.NoError(t, r.MarkPaid())
	assert.Equal(t, requisition.StatusPaid, r.Status())
	require.ErrorIs(t, r.MarkPaid(), requisition.ErrInvalidTransition)
}

func TestSequenceIsCopied(t *testing.T) {
	r := applied(t, false)
	seq := r.Sequence()
	seq[0].ApproverID = uuid.Nil
	assert.Equal(t, managerID, r.NextApprover())
}
