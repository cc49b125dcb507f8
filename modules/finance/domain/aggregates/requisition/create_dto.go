package requisition

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/entities/threshold"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

var (
	ErrInvalidAmount = serrors.NewError(
		"FINANCE_VALIDATION_INVALID_AMOUNT",
		"amount must be a positive number",
		"Finance.Errors.InvalidAmount",
	)
	ErrInvalidOrigin = serrors.NewError(
		"FINANCE_VALIDATION_INVALID_ORIGIN",
		"unknown origin scope",
		"Finance.Errors.InvalidOrigin",
	)
)

type CreateDTO struct {
	RequesterID uuid.UUID `json:"requester_id"`
	Origin      string    `json:"origin"`
	Company     string    `json:"company"`
	Region      string    `json:"region"`
	Branch      string    `json:"branch"`
	Department  string    `json:"department"`
	Amount      string    `json:"amount"`
	Purpose     string    `json:"purpose"`
	Urgent      bool      `json:"urgent"`
	Method      string    `json:"method"`
	Destination string    `json:"destination"`
}

func (d CreateDTO) ToEntity() (Requisition, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return Requisition{}, ErrInvalidAmount.WithDetail(d.Amount)
	}

	origin := threshold.OriginScope(strings.ToLower(strings.TrimSpace(d.Origin)))
	switch origin {
	case threshold.OriginBranch, threshold.OriginHQ, threshold.OriginField:
	default:
		return Requisition{}, ErrInvalidOrigin.WithDetail(d.Origin)
	}

	scope := orgscope.Scope{
		Company:    strings.TrimSpace(d.Company),
		Region:     strings.TrimSpace(d.Region),
		Branch:     strings.TrimSpace(d.Branch),
		Department: strings.TrimSpace(d.Department),
	}
	return New(
		d.RequesterID,
		origin,
		scope,
		amount,
		strings.TrimSpace(d.Purpose),
		strings.TrimSpace(d.Method),
		strings.TrimSpace(d.Destination),
		d.Urgent,
	), nil
}
