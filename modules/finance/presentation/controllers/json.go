package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/spendflow/pkg/composables"
	"github.com/iota-uz/spendflow/pkg/serrors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps coded domain errors onto HTTP statuses by their code
// family; anything without a code is an internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := serrors.Code(err)
	status := http.StatusInternalServerError
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		status = http.StatusNotFound
	case strings.Contains(code, "_AUTHORIZATION_"):
		status = http.StatusForbidden
	case strings.Contains(code, "_VALIDATION_"):
		status = http.StatusBadRequest
	case strings.Contains(code, "_CONFIGURATION_"):
		status = http.StatusUnprocessableEntity
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		composables.UseLogger(r.Context()).WithError(err).Error("request failed")
		code = "INTERNAL"
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "FINANCE_VALIDATION_MALFORMED_BODY",
			Message: "request body is not valid JSON",
		})
		return false
	}
	return true
}

func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, err := composables.UseActorID(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Code:    "FINANCE_AUTHENTICATION_REQUIRED",
			Message: "no authenticated actor on request",
		})
		return uuid.Nil, false
	}
	return actorID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "FINANCE_VALIDATION_INVALID_ID",
			Message: "path parameter " + name + " is not a valid uuid",
		})
		return uuid.Nil, false
	}
	return id, true
}
