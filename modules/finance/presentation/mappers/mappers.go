package mappers

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/presentation/viewmodels"
)

// FormatAmount renders a decimal amount for humans in the given currency,
// e.g. "$5,000.00". The raw decimal string stays alongside it in every view
// model for machine consumers.
func FormatAmount(amount decimal.Decimal, currencyCode string) string {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(money.USD)
	}
	minor := amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, currency.Code).Display()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func optionalUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func RequisitionToViewModel(r requisition.Requisition, currencyCode string) *viewmodels.Requisition {
	sequence := r.Sequence()
	workflow := make([]viewmodels.WorkflowStep, 0, len(sequence))
	for _, step := range sequence {
		workflow = append(workflow, viewmodels.WorkflowStep{
			ApproverID:    step.ApproverID.String(),
			Role:          string(step.Role),
			AutoEscalated: step.AutoEscalated,
		})
	}
	return &viewmodels.Requisition{
		ID:             r.ID().String(),
		RequesterID:    r.RequesterID().String(),
		Origin:         string(r.Origin()),
		Company:        r.Scope().Company,
		Region:         r.Scope().Region,
		Branch:         r.Scope().Branch,
		Department:     r.Scope().Department,
		Amount:         r.Amount().String(),
		AmountDisplay:  FormatAmount(r.Amount(), currencyCode),
		Purpose:        r.Purpose(),
		Method:         r.Method(),
		Destination:    r.Destination(),
		Urgent:         r.IsUrgent(),
		TierName:       r.TierName(),
		AllowFastTrack: r.AllowFastTrack(),
		Status:         string(r.Status()),
		NextApprover:   optionalUUID(r.NextApprover()),
		Workflow:       workflow,
		CreatedAt:      formatTime(r.CreatedAt()),
		UpdatedAt:      formatTime(r.UpdatedAt()),
	}
}

func TrailEntryToViewModel(e approvaltrail.Entry) *viewmodels.TrailEntry {
	skipped := e.SkippedRoles()
	roles := make([]string, 0, len(skipped))
	for _, role := range skipped {
		roles = append(roles, string(role))
	}
	return &viewmodels.TrailEntry{
		ID:            e.ID().String(),
		RequisitionID: e.RequisitionID().String(),
		ActorID:       e.ActorID().String(),
		ActorRole:     string(e.Role()),
		Action:        string(e.Action()),
		Comment:       e.Comment(),
		Escalated:     e.AutoEscalated(),
		SkippedRoles:  roles,
		Override:      e.IsOverride(),
		CreatedAt:     formatTime(e.CreatedAt()),
	}
}

func PaymentToViewModel(p payment.Payment, currencyCode string) *viewmodels.Payment {
	return &viewmodels.Payment{
		ID:            p.ID().String(),
		RequisitionID: p.RequisitionID().String(),
		Company:       p.Scope().Company,
		Region:        p.Scope().Region,
		Branch:        p.Scope().Branch,
		Amount:        p.Amount().String(),
		AmountDisplay: FormatAmount(p.Amount(), currencyCode),
		Method:        string(p.Method()),
		Destination:   p.Destination(),
		Status:        string(p.Status()),
		ExecutorID:    optionalUUID(p.ExecutorID()),
		RetryCount:    p.RetryCount(),
		MaxRetries:    p.MaxRetries(),
		CreatedAt:     formatTime(p.CreatedAt()),
		UpdatedAt:     formatTime(p.UpdatedAt()),
	}
}

func FundToViewModel(f fund.Fund, currencyCode string) *viewmodels.Fund {
	return &viewmodels.Fund{
		ID:                  f.ID().String(),
		Company:             f.Scope().Company,
		Region:              f.Scope().Region,
		Branch:              f.Scope().Branch,
		Balance:             f.Balance().String(),
		BalanceDisplay:      FormatAmount(f.Balance(), currencyCode),
		ReorderLevel:        f.ReorderLevel().String(),
		ReorderLevelDisplay: FormatAmount(f.ReorderLevel(), currencyCode),
		BelowReorderLevel:   f.BelowReorderLevel(),
		CreatedAt:           formatTime(f.CreatedAt()),
		UpdatedAt:           formatTime(f.UpdatedAt()),
	}
}

func LedgerEntryToViewModel(e fund.LedgerEntry, currencyCode string) *viewmodels.LedgerEntry {
	return &viewmodels.LedgerEntry{
		ID:            e.ID().String(),
		FundID:        e.FundID().String(),
		EntryType:     string(e.EntryType()),
		Amount:        e.Amount().String(),
		AmountDisplay: FormatAmount(e.Amount(), currencyCode),
		ExecutionID:   optionalUUID(e.ExecutionID()),
		Reconciled:    e.IsReconciled(),
		CreatedAt:     formatTime(e.CreatedAt()),
	}
}

func VarianceToViewModel(v fund.VarianceAdjustment) *viewmodels.VarianceAdjustment {
	return &viewmodels.VarianceAdjustment{
		ID:             v.ID().String(),
		FundID:         v.FundID().String(),
		PaymentID:      v.PaymentID().String(),
		OriginalAmount: v.OriginalAmount().String(),
		AdjustedAmount: v.AdjustedAmount().String(),
		Variance:       v.Variance().String(),
		Reason:         v.Reason(),
		Status:         string(v.Status()),
		CreatedAt:      formatTime(v.CreatedAt()),
	}
}
