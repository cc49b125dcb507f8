package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/fund"
	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/domain/value_objects/orgscope"
	"github.com/iota-uz/spendflow/modules/finance/presentation/mappers"
	"github.com/iota-uz/spendflow/modules/finance/presentation/viewmodels"
	"github.com/iota-uz/spendflow/modules/finance/services"
	"github.com/iota-uz/spendflow/pkg/application"
	"github.com/iota-uz/spendflow/pkg/configuration"
)

type FundController struct {
	app      application.Application
	service  *services.FundService
	currency string
	basePath string
}

func NewFundController(app application.Application) application.Controller {
	return &FundController{
		app:      app,
		service:  app.Service(&services.FundService{}).(*services.FundService),
		currency: configuration.Use().Finance.Currency,
		basePath: "/finance/funds",
	}
}

func (c *FundController) Key() string {
	return c.basePath
}

func (c *FundController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/lookup", c.GetByScope).Methods(http.MethodGet)
	router.HandleFunc("/{id}/ledger", c.Ledger).Methods(http.MethodGet)
	router.HandleFunc("/{id}/credit", c.Credit).Methods(http.MethodPost)
	router.HandleFunc("/variances", c.RecordVariance).Methods(http.MethodPost)
	router.HandleFunc("/variances/{id}/approve", c.ApproveVariance).Methods(http.MethodPost)
	router.HandleFunc("/variances/{id}/reject", c.RejectVariance).Methods(http.MethodPost)
}

type createFundBody struct {
	Company      string `json:"company"`
	Region       string `json:"region"`
	Branch       string `json:"branch"`
	Balance      string `json:"balance"`
	ReorderLevel string `json:"reorder_level"`
}

func (c *FundController) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	var body createFundBody
	if !decodeBody(w, r, &body) {
		return
	}
	balance, err := decimal.NewFromString(strings.TrimSpace(body.Balance))
	if err != nil || balance.IsNegative() {
		writeError(w, r, requisition.ErrInvalidAmount.WithDetail(body.Balance))
		return
	}
	reorderLevel, err := decimal.NewFromString(strings.TrimSpace(body.ReorderLevel))
	if err != nil || reorderLevel.IsNegative() {
		writeError(w, r, requisition.ErrInvalidAmount.WithDetail(body.ReorderLevel))
		return
	}
	scope := orgscope.Scope{
		Company: strings.TrimSpace(body.Company),
		Region:  strings.TrimSpace(body.Region),
		Branch:  strings.TrimSpace(body.Branch),
	}
	created, err := c.service.Create(r.Context(), fund.New(scope, balance, reorderLevel))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.FundToViewModel(created, c.currency))
}

func (c *FundController) GetByScope(w http.ResponseWriter, r *http.Request) {
	scope := orgscope.Scope{
		Company: r.URL.Query().Get("company"),
		Region:  r.URL.Query().Get("region"),
		Branch:  r.URL.Query().Get("branch"),
	}
	result, err := c.service.GetByScope(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.FundToViewModel(result, c.currency))
}

func (c *FundController) Ledger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := c.service.Ledger(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*viewmodels.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, mappers.LedgerEntryToViewModel(entry, c.currency))
	}
	writeJSON(w, http.StatusOK, out)
}

type creditBody struct {
	Amount string `json:"amount"`
}

func (c *FundController) Credit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body creditBody
	if !decodeBody(w, r, &body) {
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(body.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		writeError(w, r, requisition.ErrInvalidAmount.WithDetail(body.Amount))
		return
	}
	result, err := c.service.Credit(r.Context(), id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.FundToViewModel(result, c.currency))
}

type varianceBody struct {
	PaymentID      string `json:"payment_id"`
	AdjustedAmount string `json:"adjusted_amount"`
	Reason         string `json:"reason"`
}

func (c *FundController) RecordVariance(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	var body varianceBody
	if !decodeBody(w, r, &body) {
		return
	}
	paymentID, err := uuid.Parse(body.PaymentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "FINANCE_VALIDATION_INVALID_ID",
			Message: "payment_id is not a valid uuid",
		})
		return
	}
	adjusted, err := decimal.NewFromString(strings.TrimSpace(body.AdjustedAmount))
	if err != nil || adjusted.LessThanOrEqual(decimal.Zero) {
		writeError(w, r, requisition.ErrInvalidAmount.WithDetail(body.AdjustedAmount))
		return
	}
	created, err := c.service.RecordVariance(r.Context(), paymentID, adjusted, body.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.VarianceToViewModel(created))
}

func (c *FundController) ApproveVariance(w http.ResponseWriter, r *http.Request) {
	c.decideVariance(w, r, c.service.ApproveVariance)
}

func (c *FundController) RejectVariance(w http.ResponseWriter, r *http.Request) {
	c.decideVariance(w, r, c.service.RejectVariance)
}

func (c *FundController) decideVariance(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, varianceID, actorID uuid.UUID) (fund.VarianceAdjustment, error),
) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	decided, err := apply(r.Context(), id, actorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.VarianceToViewModel(decided))
}
