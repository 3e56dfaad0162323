package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"conti/internal/core"
	"conti/internal/ledger"
	applog "conti/internal/log"
	"conti/internal/middleware/trace"
	"conti/internal/services"
	"conti/internal/settlement"
)

// envelope is the body of every successful response. Warning is set when a
// change was applied in memory but could not be persisted.
type envelope struct {
	Data    any    `json:"data"`
	Warning string `json:"warning,omitempty"`
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// writeResult answers a mutation. A persistence warning still returns
// status with the data; any other error is mapped by statusFor.
func writeResult(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	switch {
	case err == nil:
		writeData(w, status, data)
	case ledger.IsWarning(err):
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Change not durable", applog.FieldError, err)
		writeJSON(w, status, envelope{Data: data, Warning: err.Error()})
	default:
		writeFailure(w, r, err)
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		writeError(w, r, status, "internal error")
		return
	}
	writeError(w, r, status, err.Error())
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case services.IsValidation(err), errors.Is(err, settlement.ErrAnomalies):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrDuplicateID),
		errors.Is(err, services.ErrAlreadySettled),
		errors.Is(err, settlement.ErrNothingToSettle):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidMonth):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
