package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
)

type requisitionFixture struct {
	service      *RequisitionService
	directory    *memDirectory
	requisitions *memRequisitions
	trail        *memTrail
	payments     *memPayments
	requester    approver.Approver
}

func newRequisitionFixture(t *testing.T) *requisitionFixture {
	t.Helper()
	useMemTx(t)

	directory := newMemDirectory()
	requisitions := newMemRequisitions()
	trail := newMemTrail()
	payments := newMemPayments()
	resolver := NewWorkflowResolver(threshold.BuiltIn(), directory, NewRoleChainFallback(directory))

	return &requisitionFixture{
		service: NewRequisitionService(
			requisitions, trail, payments, directory, resolver, testBus(), testFinanceOptions(),
		),
		directory:    directory,
		requisitions: requisitions,
		trail:        trail,
		payments:     payments,
		requester:    directory.add("requester", approver.RoleFieldCoordinator, branchScope().RegionLevel()),
	}
}

func (f *requisitionFixture) create(t *testing.T, amount string, origin string, urgent bool) requisition.Requisition {
	t.Helper()
	created, err := f.service.Create(context.Background(), &requisition.CreateDTO{
		RequesterID: f.requester.ID(),
		Origin:      origin,
		Company:     "acme",
		Region:      "north",
		Branch:      "b-01",
		Amount:      amount,
		Purpose:     "field supplies",
		Method:      "bank_transfer",
		Destination: "ACC-001",
		Urgent:      urgent,
	})
	require.NoError(t, err)
	return created
}

func TestRequisitionService_CreateRoutesByAmount(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())

	created := f.create(t, "500.00", "branch", false)

	assert.Equal(t, "tier-1", created.TierName())
	assert.Equal(t, requisition.StatusPending, created.Status())
	assert.Equal(t, manager.ID(), created.NextApprover())

	entries, err := f.service.Trail(context.Background(), created.ID())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRequisitionService_FullChainCreatesPayment(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())
	finance := f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())

	created := f.create(t, "5000.00", "branch", false)
	require.Equal(t, "tier-2", created.TierName())

	after, err := f.service.Approve(context.Background(), created.ID(), manager.ID(), "looks fine")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPending, after.Status())
	assert.Equal(t, finance.ID(), after.NextApprover())

	after, err = f.service.Approve(context.Background(), created.ID(), finance.ID(), "")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusReviewed, after.Status())

	p, err := f.payments.GetByRequisitionID(context.Background(), created.ID())
	require.NoError(t, err)
	assert.True(t, p.Amount().Equal(amt("5000.00")))
	assert.Equal(t, payment.StatusPending, p.Status())
	assert.True(t, p.OTPRequired())

	entries, err := f.service.Trail(context.Background(), created.ID())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, approvaltrail.ActionApproved, entries[0].Action())
	assert.Equal(t, "looks fine", entries[0].Comment())
}

func TestRequisitionService_SelfApprovalRefused(t *testing.T) {
	f := newRequisitionFixture(t)
	f.directory.add("manager", approver.RoleBranchManager, branchScope())

	created := f.create(t, "500.00", "branch", false)
	_, err := f.service.Approve(context.Background(), created.ID(), f.requester.ID(), "")
	require.ErrorIs(t, err, requisition.ErrSelfApproval)
}

func TestRequisitionService_OutOfTurnApprovalRefused(t *testing.T) {
	f := newRequisitionFixture(t)
	f.directory.add("manager", approver.RoleBranchManager, branchScope())
	finance := f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())

	created := f.create(t, "5000.00", "branch", false)
	_, err := f.service.Approve(context.Background(), created.ID(), finance.ID(), "")
	require.ErrorIs(t, err, requisition.ErrNotCurrentApprover)
}

func TestRequisitionService_RejectIsTerminal(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())

	created := f.create(t, "500.00", "branch", false)
	after, err := f.service.Reject(context.Background(), created.ID(), manager.ID(), "no budget line")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusRejected, after.Status())
	assert.Empty(t, after.Sequence())

	_, err = f.service.Approve(context.Background(), created.ID(), manager.ID(), "")
	require.ErrorIs(t, err, requisition.ErrTerminalState)

	_, err = f.payments.GetByRequisitionID(context.Background(), created.ID())
	require.ErrorIs(t, err, payment.ErrNotFound)
}

func TestRequisitionService_UrgencyConfirmCollapsesSequence(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())
	finance := f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())

	created := f.create(t, "5000.00", "branch", true)
	require.Equal(t, requisition.StatusPendingUrgencyConfirmation, created.Status())
	require.Len(t, created.Sequence(), 2)

	after, err := f.service.ConfirmUrgency(context.Background(), created.ID(), manager.ID(), true, "genuinely urgent")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPending, after.Status())
	require.Len(t, after.Sequence(), 1)
	assert.Equal(t, finance.ID(), after.NextApprover())

	entries, err := f.service.Trail(context.Background(), created.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, approvaltrail.ActionUrgencyConfirmed, entries[0].Action())
	assert.Equal(t, []approver.Role{approver.RoleBranchManager}, entries[0].SkippedRoles())
}

func TestRequisitionService_UrgencyConfirmSingleStepSatisfiedImmediately(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())

	created := f.create(t, "500.00", "branch", true)
	require.Len(t, created.Sequence(), 1)

	after, err := f.service.ConfirmUrgency(context.Background(), created.ID(), manager.ID(), true, "")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusReviewed, after.Status())

	_, err = f.payments.GetByRequisitionID(context.Background(), created.ID())
	require.NoError(t, err)
}

func TestRequisitionService_UrgencyDenialRejects(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())
	f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())

	created := f.create(t, "5000.00", "branch", true)
	after, err := f.service.ConfirmUrgency(context.Background(), created.ID(), manager.ID(), false, "not urgent at all")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusRejected, after.Status())

	entries, err := f.service.Trail(context.Background(), created.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, approvaltrail.ActionRejected, entries[0].Action())
}

func TestRequisitionService_ExecutiveTierNeverFastTracks(t *testing.T) {
	f := newRequisitionFixture(t)
	finance := f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())
	f.directory.add("treasury", approver.RoleTreasuryOfficer, branchScope().CompanyOnly())
	f.directory.add("cfo", approver.RoleCFO, branchScope().CompanyOnly())

	created := f.create(t, "150000.00", "hq", true)
	require.Equal(t, threshold.TierExecutive, created.TierName())

	after, err := f.service.ConfirmUrgency(context.Background(), created.ID(), finance.ID(), true, "")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusPending, after.Status())
	// Full executive chain survives the urgency confirmation.
	assert.Len(t, after.Sequence(), 3)
	assert.Equal(t, finance.ID(), after.NextApprover())
}

func TestRequisitionService_AdminOverride(t *testing.T) {
	f := newRequisitionFixture(t)
	f.directory.add("manager", approver.RoleBranchManager, branchScope())
	f.directory.add("finance", approver.RoleFinanceOfficer, branchScope().CompanyOnly())
	admin := f.directory.add("admin", approver.RoleAdmin, branchScope())

	created := f.create(t, "5000.00", "branch", false)

	_, err := f.service.AdminOverride(context.Background(), created.ID(), admin.ID(), "  ")
	require.ErrorIs(t, err, requisition.ErrJustificationRequired)

	after, err := f.service.AdminOverride(context.Background(), created.ID(), admin.ID(), "vendor deadline today")
	require.NoError(t, err)
	assert.Equal(t, requisition.StatusReviewed, after.Status())

	entries, err := f.service.Trail(context.Background(), created.ID())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsOverride())
	assert.Equal(t, "vendor deadline today", entries[0].Comment())

	_, err = f.payments.GetByRequisitionID(context.Background(), created.ID())
	require.NoError(t, err)
}

func TestRequisitionService_OverrideRestrictedToAdmins(t *testing.T) {
	f := newRequisitionFixture(t)
	manager := f.directory.add("manager", approver.RoleBranchManager, branchScope())

	created := f.create(t, "500.00", "branch", false)
	_, err := f.service.AdminOverride(context.Background(), created.ID(), manager.ID(), "please")
	require.ErrorIs(t, err, ErrOverrideRestricted)
}
