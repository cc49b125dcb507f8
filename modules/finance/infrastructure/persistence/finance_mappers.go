package persistence

import (
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/payment"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approvaltrail"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/approver"
	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/modules/finance/infrastructure/persistence/models"
)

var zeroTime time.Time

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "invalid uuid in row")
	}
	return id, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "invalid numeric in row")
	}
	return amount, nil
}

func scopeFromRow(company, region, branch, department string) orgscope.Scope {
	return orgscope.Scope{
		Company:    company,
		Region:     region,
		Branch:     branch,
		Department: department,
	}
}

func toDomainApprover(row *models.Approver) (approver.Approver, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return approver.Approver{}, err
	}
	role, err := approver.ParseRole(row.Role)
	if err != nil {
		return approver.Approver{}, err
	}
	return approver.Hydrate(
		id,
		row.Name,
		row.Email,
		role,
		scopeFromRow(row.Company, row.Region, row.Branch, row.Department),
		row.Centralized,
		row.Active,
	), nil
}

func toDomainRequisition(row *models.Requisition) (requisition.Requisition, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return requisition.Requisition{}, err
	}
	requesterID, err := parseUUID(row.RequesterID)
	if err != nil {
		return requisition.Requisition{}, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return requisition.Requisition{}, err
	}
	var sequence []requisition.WorkflowStep
	if len(row.Workflow) > 0 {
		if err := json.Unmarshal(row.Workflow, &sequence); err != nil {
			return requisition.Requisition{}, errors.Wrap(err, "invalid workflow json")
		}
	}
	return requisition.Hydrate(
		id,
		requesterID,
		threshold.OriginScope(row.Origin),
		scopeFromRow(row.Company, row.Region, row.Branch, row.Department),
		amount,
		row.Purpose,
		row.Method,
		row.Destination,
		row.Urgent,
		row.TierName,
		row.AllowFastTrack,
		sequence,
		int(row.StepIndex),
		requisition.Status(row.Status),
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func workflowJSON(sequence []requisition.WorkflowStep) ([]byte, error) {
	if len(sequence) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(sequence)
}

func toDomainTrailEntry(row *models.ApprovalTrailEntry) (approvaltrail.Entry, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return approvaltrail.Entry{}, err
	}
	requisitionID, err := parseUUID(row.RequisitionID)
	if err != nil {
		return approvaltrail.Entry{}, err
	}
	actorID, err := parseUUID(row.ActorID)
	if err != nil {
		return approvaltrail.Entry{}, err
	}
	var skipped []approver.Role
	if len(row.SkippedRoles) > 0 {
		if err := json.Unmarshal(row.SkippedRoles, &skipped); err != nil {
			return approvaltrail.Entry{}, errors.Wrap(err, "invalid skipped roles json")
		}
	}
	return approvaltrail.Hydrate(
		id,
		requisitionID,
		actorID,
		approver.Role(row.ActorRole),
		approvaltrail.Action(row.Action),
		row.Comment,
		row.Escalated,
		skipped,
		row.Override,
		row.CreatedAt,
	), nil
}

func skippedRolesJSON(skipped []approver.Role) ([]byte, error) {
	if len(skipped) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(skipped)
}

func toDomainFund(row *models.Fund) (fund.Fund, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return fund.Fund{}, err
	}
	balance, err := parseAmount(row.Balance)
	if err != nil {
		return fund.Fund{}, err
	}
	reorderLevel, err := parseAmount(row.ReorderLevel)
	if err != nil {
		return fund.Fund{}, err
	}
	return fund.Hydrate(
		id,
		scopeFromRow(row.Company, row.Region, row.Branch, ""),
		balance,
		reorderLevel,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDomainLedgerEntry(row *models.LedgerEntry) (fund.LedgerEntry, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return fund.LedgerEntry{}, err
	}
	fundID, err := parseUUID(row.FundID)
	if err != nil {
		return fund.LedgerEntry{}, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return fund.LedgerEntry{}, err
	}
	executionID := uuid.Nil
	if row.ExecutionID != nil {
		executionID, err = parseUUID(*row.ExecutionID)
		if err != nil {
			return fund.LedgerEntry{}, err
		}
	}
	return fund.HydrateLedgerEntry(
		id,
		fundID,
		fund.EntryType(row.EntryType),
		amount,
		executionID,
		row.Reconciled,
		row.CreatedAt,
	), nil
}

func toDomainReplenishment(row *models.ReplenishmentRequest) (fund.ReplenishmentRequest, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	fundID, err := parseUUID(row.FundID)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	snapshot, err := parseAmount(row.BalanceSnapshot)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	requested, err := parseAmount(row.RequestedAmount)
	if err != nil {
		return fund.ReplenishmentRequest{}, err
	}
	return fund.HydrateReplenishmentRequest(
		id,
		fundID,
		snapshot,
		requested,
		fund.ReplenishmentStatus(row.Status),
		row.AutoTriggered,
		row.CreatedAt,
	), nil
}

func toDomainVariance(row *models.VarianceAdjustment) (fund.VarianceAdjustment, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	fundID, err := parseUUID(row.FundID)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	paymentID, err := parseUUID(row.PaymentID)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	original, err := parseAmount(row.OriginalAmount)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	adjusted, err := parseAmount(row.AdjustedAmount)
	if err != nil {
		return fund.VarianceAdjustment{}, err
	}
	return fund.HydrateVarianceAdjustment(
		id,
		fundID,
		paymentID,
		original,
		adjusted,
		row.Reason,
		fund.VarianceStatus(row.Status),
		row.CreatedAt,
	), nil
}

func toDomainPayment(row *models.Payment) (payment.Payment, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return payment.Payment{}, err
	}
	requisitionID, err := parseUUID(row.RequisitionID)
	if err != nil {
		return payment.Payment{}, err
	}
	requesterID, err := parseUUID(row.RequesterID)
	if err != nil {
		return payment.Payment{}, err
	}
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return payment.Payment{}, err
	}
	executorID := uuid.Nil
	if row.ExecutorID != nil {
		executorID, err = parseUUID(*row.ExecutorID)
		if err != nil {
			return payment.Payment{}, err
		}
	}
	return payment.Hydrate(
		id,
		requisitionID,
		requesterID,
		scopeFromRow(row.Company, row.Region, row.Branch, ""),
		amount,
		payment.Method(row.Method),
		row.Destination,
		payment.Status(row.Status),
		executorID,
		row.OTPRequired,
		int(row.RetryCount),
		int(row.MaxRetries),
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDomainOTP(row *models.PaymentOTP) (payment.OTP, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return payment.OTP{}, err
	}
	paymentID, err := parseUUID(row.PaymentID)
	if err != nil {
		return payment.OTP{}, err
	}
	verifiedAt := zeroTime
	if row.VerifiedAt != nil {
		verifiedAt = *row.VerifiedAt
	}
	return payment.HydrateOTP(
		id,
		paymentID,
		row.CodeHash,
		row.ExpiresAt,
		verifiedAt,
		row.CreatedAt,
	), nil
}

func toDomainExecution(row *models.PaymentExecution) (payment.Execution, error) {
	id, err := parseUUID(row.ID)
	if err != nil {
		return payment.Execution{}, err
	}
	paymentID, err := parseUUID(row.PaymentID)
	if err != nil {
		return payment.Execution{}, err
	}
	executorID, err := parseUUID(row.ExecutorID)
	if err != nil {
		return payment.Execution{}, err
	}
	verifiedAt := zeroTime
	if row.OTPVerifiedAt != nil {
		verifiedAt = *row.OTPVerifiedAt
	}
	return payment.HydrateExecution(
		id,
		paymentID,
		executorID,
		row.GatewayReference,
		row.GatewayStatus,
		verifiedAt,
		row.CreatedAt,
	), nil
}
