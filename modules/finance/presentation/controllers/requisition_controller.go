package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/spendflow/modules/finance/domain/aggregates/requisition"
	"github.com/iota-uz/spendflow/modules/finance/presentation/mappers"
	"github.com/iota-uz/spendflow/modules/finance/presentation/viewmodels"
	"github.com/iota-uz/spendflow/modules/finance/services"
	"github.com/iota-uz/spendflow/pkg/application"
	"github.com/iota-uz/spendflow/pkg/configuration"
)

type RequisitionController struct {
	app      application.Application
	service  *services.RequisitionService
	currency string
	basePath string
}

func NewRequisitionController(app application.Application) application.Controller {
	return &RequisitionController{
		app:      app,
		service:  app.Service(&services.RequisitionService{}).(*services.RequisitionService),
		currency: configuration.Use().Finance.Currency,
		basePath: "/finance/requisitions",
	}
}

func (c *RequisitionController) Key() string {
	return c.basePath
}

func (c *RequisitionController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}/trail", c.Trail).Methods(http.MethodGet)
	router.HandleFunc("/{id}/approve", c.Approve).Methods(http.MethodPost)
	router.HandleFunc("/{id}/reject", c.Reject).Methods(http.MethodPost)
	router.HandleFunc("/{id}/urgency", c.ConfirmUrgency).Methods(http.MethodPost)
	router.HandleFunc("/{id}/override", c.Override).Methods(http.MethodPost)
}

func (c *RequisitionController) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	var dto requisition.CreateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	// The authenticated actor is always the requester.
	dto.RequesterID = actorID

	created, err := c.service.Create(r.Context(), &dto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappers.RequisitionToViewModel(created, c.currency))
}

func (c *RequisitionController) List(w http.ResponseWriter, r *http.Request) {
	params := &requisition.FindParams{
		Status: requisition.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("next_approver"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code:    "FINANCE_VALIDATION_INVALID_ID",
				Message: "next_approver is not a valid uuid",
			})
			return
		}
		params.NextApprover = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		params.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		params.Offset, _ = strconv.Atoi(raw)
	}

	results, err := c.service.GetPaginated(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*viewmodels.Requisition, 0, len(results))
	for _, result := range results {
		out = append(out, mappers.RequisitionToViewModel(result, c.currency))
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *RequisitionController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.RequisitionToViewModel(result, c.currency))
}

func (c *RequisitionController) Trail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := c.service.Trail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]*viewmodels.TrailEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, mappers.TrailEntryToViewModel(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

type decisionBody struct {
	Comment string `json:"comment"`
}

func (c *RequisitionController) Approve(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, c.service.Approve)
}

func (c *RequisitionController) Reject(w http.ResponseWriter, r *http.Request) {
	c.decide(w, r, c.service.Reject)
}

func (c *RequisitionController) decide(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id, actorID uuid.UUID, comment string) (requisition.Requisition, error),
) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body decisionBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := apply(r.Context(), id, actorID, body.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.RequisitionToViewModel(result, c.currency))
}

type urgencyBody struct {
	Confirm bool   `json:"confirm"`
	Comment string `json:"comment"`
}

func (c *RequisitionController) ConfirmUrgency(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body urgencyBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := c.service.ConfirmUrgency(r.Context(), id, actorID, body.Confirm, body.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.RequisitionToViewModel(result, c.currency))
}

type overrideBody struct {
	Justification string `json:"justification"`
}

func (c *RequisitionController) Override(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body overrideBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := c.service.AdminOverride(r.Context(), id, actorID, body.Justification)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.RequisitionToViewModel(result, c.currency))
}
