package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/spendflow/modules/finance/presentation/mappers"
	"github.com/iota-uz/spendflow/modules/finance/services"
	"github.com/iota-uz/spendflow/pkg/application"
	"github.com/iota-uz/spendflow/pkg/configuration"
)

type PaymentController struct {
	app      application.Application
	service  *services.PaymentService
	currency string
	basePath string
}

func NewPaymentController(app application.Application) application.Controller {
	return &PaymentController{
		app:      app,
		service:  app.Service(&services.PaymentService{}).(*services.PaymentService),
		currency: configuration.Use().Finance.Currency,
		basePath: "/finance/payments",
	}
}

func (c *PaymentController) Key() string {
	return c.basePath
}

func (c *PaymentController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}/otp", c.RequestOTP).Methods(http.MethodPost)
	router.HandleFunc("/{id}/otp/verify", c.VerifyOTP).Methods(http.MethodPost)
	router.HandleFunc("/{id}/can-execute", c.CanExecute).Methods(http.MethodGet)
	router.HandleFunc("/{id}/execute", c.Execute).Methods(http.MethodPost)
	router.HandleFunc("/reconcile", c.Reconcile).Methods(http.MethodPost)
}

func (c *PaymentController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.PaymentToViewModel(result, c.currency))
}

func (c *PaymentController) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	// The code travels to the executor out of band; the response only
	// acknowledges issuance.
	if _, err := c.service.RequestOTP(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "otp_issued"})
}

type verifyOTPBody struct {
	Code string `json:"code"`
}

func (c *PaymentController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body verifyOTPBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := c.service.VerifyOTP(r.Context(), id, body.Code); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_verified"})
}

func (c *PaymentController) CanExecute(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	allowed, reason := c.service.CanExecute(r.Context(), id, actorID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"can_execute": allowed,
		"reason":      reason,
	})
}

type executeBody struct {
	GatewayReference string `json:"gateway_reference"`
}

func (c *PaymentController) Execute(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body executeBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := c.service.Execute(r.Context(), id, actorID, body.GatewayReference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.PaymentToViewModel(result, c.currency))
}

type reconcileBody struct {
	GatewayReference string `json:"gateway_reference"`
	GatewayStatus    string `json:"gateway_status"`
}

func (c *PaymentController) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body reconcileBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := c.service.Reconcile(r.Context(), body.GatewayReference, body.GatewayStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mappers.PaymentToViewModel(result, c.currency))
}
