package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/configuration"
	"github.com/iota-uz/spendflow/pkg/eventbus"
)

// useMemTx swaps the transaction seam for a mutex-serialized passthrough.
// The mutex plays the role of the database row locks: each "transaction"
// runs alone, exactly like competing transactions queueing on FOR UPDATE.
func useMemTx(t *testing.T) {
	t.Helper()
	var mu sync.Mutex
	orig := inTx
	inTx = func(ctx context.Context, fn func(context.Context) error) error {
		mu.Lock()
		defer mu.Unlock()
		return fn(ctx)
	}
	t.Cleanup(func() { inTx = orig })
}

func testFinanceOptions() configuration.FinanceOptions {
	return configuration.FinanceOptions{
		OTPTTL:            5 * time.Minute,
		PaymentMaxRetries: 3,
		ReorderMultiplier: 2,
		NoFastTrackTier:   threshold.TierExecutive,
		Currency:          "USD",
	}
}

func testBus() eventbus.EventBus {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(logger)
}

func amt(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func mustUUID(value string) uuid.UUID {
	return uuid.MustParse(value)
}

func branchScope() orgscope.Scope {
	return orgscope.Scope{Company: "acme", Region: "north", Branch: "b-01"}
}

// memDirectory is an in-memory approver.Directory.
type memDirectory struct {
	mu        sync.Mutex
	approvers map[uuid.UUID]approver.Approver
}

func newMemDirectory() *memDirectory {
	return &memDirectory{approvers: map[uuid.UUID]approver.Approver{}}
}

func (d *memDirectory) add(name string, role approver.Role, scope orgscope.Scope) approver.Approver {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := approver.Hydrate(uuid.New(), name, name+"@acme.test", role, scope, role.ScopePolicy() == approver.ScopeCentral, true)
	d.approvers[a.ID()] = a
	return a
}

func (d *memDirectory) GetByID(_ context.Context, id uuid.UUID) (approver.Approver, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.approvers[id]
	if !ok {
		return approver.Approver{}, approver.ErrNotFound
	}
	return a, nil
}

func (d *memDirectory) FindActiveByRole(_ context.Context, role approver.Role, scope orgscope.Scope) ([]approver.Approver, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []approver.Approver
	for _, a := range d.approvers {
		if a.Role() != role || !a.IsActive() {
			continue
		}
		if !a.IsCentralized() && !scopeMatches(a.Scope(), scope) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func scopeMatches(have, want orgscope.Scope) bool {
	if want.Company != "" && have.Company != want.Company {
		return false
	}
	if want.Region != "" && have.Region != want.Region {
		return false
	}
	if want.Branch != "" && have.Branch != want.Branch {
		return false
	}
	if want.Department != "" && have.Department != want.Department {
		return false
	}
	return true
}

// memRequisitions is an in-memory requisition.Repository.
type memRequisitions struct {
	mu    sync.Mutex
	items map[uuid.UUID]requisition.Requisition
}

func newMemRequisitions() *memRequisitions {
	return &memRequisitions{items: map[uuid.UUID]requisition.Requisition{}}
}

func withID(r requisition.Requisition, id uuid.UUID) requisition.Requisition {
	return requisition.Hydrate(
		id, r.RequesterID(), r.Origin(), r.Scope(), r.Amount(), r.Purpose(),
		r.Method(), r.Destination(), r.IsUrgent(), r.TierName(), r.AllowFastTrack(),
		r.Sequence(), r.StepIndex(), r.Status(), time.Now(), time.Now(),
	)
}

func (m *memRequisitions) Create(_ context.Context, r requisition.Requisition) (requisition.Requisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := withID(r, uuid.New())
	m.items[created.ID()] = created
	return created, nil
}

func (m *memRequisitions) GetByID(_ context.Context, id uuid.UUID) (requisition.Requisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return requisition.Requisition{}, requisition.ErrNotFound
	}
	return r, nil
}

func (m *memRequisitions) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (requisition.Requisition, error) {
	return m.GetByID(ctx, id)
}

func (m *memRequisitions) Update(_ context.Context, r requisition.Requisition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID()]; !ok {
		return requisition.ErrNotFound
	}
	m.items[r.ID()] = r
	return nil
}

func (m *memRequisitions) GetPaginated(_ context.Context, params *requisition.FindParams) ([]requisition.Requisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []requisition.Requisition
	for _, r := range m.items {
		if params != nil && params.Status != "" && r.Status() != params.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// memTrail is an in-memory approvaltrail.Repository.
type memTrail struct {
	mu      sync.Mutex
	entries []approvaltrail.Entry
}

func newMemTrail() *memTrail {
	return &memTrail{}
}

func (m *memTrail) Create(_ context.Context, entry approvaltrail.Entry) (approvaltrail.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := approvaltrail.Hydrate(
		uuid.New(), entry.RequisitionID(), entry.ActorID(), entry.Role(), entry.Action(),
		entry.Comment(), entry.AutoEscalated(), entry.SkippedRoles(), entry.IsOverride(), time.Now(),
	)
	m.entries = append(m.entries, created)
	return created, nil
}

func (m *memTrail) ListByRequisition(_ context.Context, requisitionID uuid.UUID) ([]approvaltrail.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []approvaltrail.Entry
	for _, entry := range m.entries {
		if entry.RequisitionID() == requisitionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// memPayments is an in-memory payment.Repository.
type memPayments struct {
	mu         sync.Mutex
	items      map[uuid.UUID]payment.Payment
	otps       []payment.OTP
	executions []payment.Execution
}

func newMemPayments() *memPayments {
	return &memPayments{items: map[uuid.UUID]payment.Payment{}}
}

func paymentWithID(p payment.Payment, id uuid.UUID) payment.Payment {
	return payment.Hydrate(
		id, p.RequisitionID(), p.RequesterID(), p.Scope(), p.Amount(), p.Method(),
		p.Destination(), p.Status(), p.ExecutorID(), p.OTPRequired(),
		p.RetryCount(), p.MaxRetries(), time.Now(), time.Now(),
	)
}

func (m *memPayments) Create(_ context.Context, p payment.Payment) (payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.RequisitionID() == p.RequisitionID() {
			return payment.Payment{}, payment.ErrAlreadyExecuted.WithDetail("duplicate payment for requisition")
		}
	}
	created := paymentWithID(p, uuid.New())
	m.items[created.ID()] = created
	return created, nil
}

func (m *memPayments) GetByID(_ context.Context, id uuid.UUID) (payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	return p, nil
}

func (m *memPayments) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	return m.GetByID(ctx, id)
}

func (m *memPayments) GetByRequisitionID(_ context.Context, requisitionID uuid.UUID) (payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.RequisitionID() == requisitionID {
			return p, nil
		}
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (m *memPayments) GetByGatewayReference(_ context.Context, reference string) (payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.executions {
		if e.GatewayReference() == reference {
			if p, ok := m.items[e.PaymentID()]; ok {
				return p, nil
			}
		}
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (m *memPayments) Update(_ context.Context, p payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID()]; !ok {
		return payment.ErrNotFound
	}
	m.items[p.ID()] = p
	return nil
}

func (m *memPayments) CreateOTP(_ context.Context, otp payment.OTP) (payment.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := payment.HydrateOTP(
		uuid.New(), otp.PaymentID(), otp.CodeHash(), otp.ExpiresAt(), otp.VerifiedAt(), time.Now(),
	)
	m.otps = append(m.otps, created)
	return created, nil
}

func (m *memPayments) LatestOTP(_ context.Context, paymentID uuid.UUID) (payment.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.otps) - 1; i >= 0; i-- {
		if m.otps[i].PaymentID() == paymentID {
			return m.otps[i], nil
		}
	}
	return payment.OTP{}, payment.ErrNoOTP
}

func (m *memPayments) MarkOTPVerified(_ context.Context, otpID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, otp := range m.otps {
		if otp.ID() != otpID {
			continue
		}
		if otp.IsVerified() {
			return false, nil
		}
		m.otps[i] = payment.HydrateOTP(
			otp.ID(), otp.PaymentID(), otp.CodeHash(), otp.ExpiresAt(), time.Now(), otp.CreatedAt(),
		)
		return true, nil
	}
	return false, payment.ErrNoOTP
}

func (m *memPayments) CreateExecution(_ context.Context, e payment.Execution) (payment.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.executions {
		if existing.PaymentID() == e.PaymentID() || existing.GatewayReference() == e.GatewayReference() {
			return payment.Execution{}, payment.ErrAlreadyExecuted.WithDetail("duplicate execution")
		}
	}
	created := payment.HydrateExecution(
		uuid.New(), e.PaymentID(), e.ExecutorID(), e.GatewayReference(), e.GatewayStatus(), e.OTPVerifiedAt(), time.Now(),
	)
	m.executions = append(m.executions, created)
	return created, nil
}

// memFunds is an in-memory fund.Repository.
type memFunds struct {
	mu             sync.Mutex
	items          map[uuid.UUID]fund.Fund
	ledger         []fund.LedgerEntry
	replenishments []fund.ReplenishmentRequest
	variances      map[uuid.UUID]fund.VarianceAdjustment
}

func newMemFunds() *memFunds {
	return &memFunds{
		items:     map[uuid.UUID]fund.Fund{},
		variances: map[uuid.UUID]fund.VarianceAdjustment{},
	}
}

func (m *memFunds) seed(scope orgscope.Scope, balance, reorderLevel decimal.Decimal) fund.Fund {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := fund.Hydrate(uuid.New(), scope.FundScope(), balance, reorderLevel, time.Now(), time.Now())
	m.items[f.ID()] = f
	return f
}

func (m *memFunds) Create(_ context.Context, f fund.Fund) (fund.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := fund.Hydrate(uuid.New(), f.Scope(), f.Balance(), f.ReorderLevel(), time.Now(), time.Now())
	m.items[created.ID()] = created
	return created, nil
}

func (m *memFunds) GetByScope(_ context.Context, scope orgscope.Scope) (fund.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := scope.FundScope()
	for _, f := range m.items {
		if f.Scope() == target {
			return f, nil
		}
	}
	return fund.Fund{}, fund.ErrNotFound
}

func (m *memFunds) GetByScopeForUpdate(ctx context.Context, scope orgscope.Scope) (fund.Fund, error) {
	return m.GetByScope(ctx, scope)
}

func (m *memFunds) GetByIDForUpdate(_ context.Context, id uuid.UUID) (fund.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.items[id]
	if !ok {
		return fund.Fund{}, fund.ErrNotFound
	}
	return f, nil
}

func (m *memFunds) UpdateBalance(_ context.Context, f fund.Fund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[f.ID()]; !ok {
		return fund.ErrNotFound
	}
	m.items[f.ID()] = f
	return nil
}

func (m *memFunds) CreateLedgerEntry(_ context.Context, entry fund.LedgerEntry) (fund.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := fund.HydrateLedgerEntry(
		uuid.New(), entry.FundID(), entry.EntryType(), entry.Amount(),
		entry.ExecutionID(), entry.IsReconciled(), time.Now(),
	)
	m.ledger = append(m.ledger, created)
	return created, nil
}

func (m *memFunds) ListLedgerEntries(_ context.Context, fundID uuid.UUID) ([]fund.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []fund.LedgerEntry
	for _, entry := range m.ledger {
		if entry.FundID() == fundID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memFunds) CreateReplenishment(_ context.Context, r fund.ReplenishmentRequest) (fund.ReplenishmentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := fund.HydrateReplenishmentRequest(
		uuid.New(), r.FundID(), r.BalanceSnapshot(), r.RequestedAmount(), r.Status(), r.IsAutoTriggered(), time.Now(),
	)
	m.replenishments = append(m.replenishments, created)
	return created, nil
}

func (m *memFunds) HasOpenReplenishment(_ context.Context, fundID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.replenishments {
		if r.FundID() != fundID {
			continue
		}
		if r.Status() == fund.ReplenishmentPending || r.Status() == fund.ReplenishmentApproved {
			return true, nil
		}
	}
	return false, nil
}

func (m *memFunds) CreateVariance(_ context.Context, v fund.VarianceAdjustment) (fund.VarianceAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := fund.HydrateVarianceAdjustment(
		uuid.New(), v.FundID(), v.PaymentID(), v.OriginalAmount(), v.AdjustedAmount(),
		v.Reason(), v.Status(), time.Now(),
	)
	m.variances[created.ID()] = created
	return created, nil
}

func (m *memFunds) GetVarianceByIDForUpdate(_ context.Context, id uuid.UUID) (fund.VarianceAdjustment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variances[id]
	if !ok {
		return fund.VarianceAdjustment{}, fund.ErrNotFound
	}
	return v, nil
}

func (m *memFunds) UpdateVariance(_ context.Context, v fund.VarianceAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.variances[v.ID()]; !ok {
		return fund.ErrNotFound
	}
	m.variances[v.ID()] = v
	return nil
}
