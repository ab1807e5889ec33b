package api

import (
	"encoding/json"
	"net/http"

	"github.com/the-lightning-land/tradefee/fault"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *Api) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		a.log.Errorf("Could not respond with JSON: %v", err)
	}
}

func (a *Api) jsonError(w http.ResponseWriter, msg string, code int) {
	a.jsonResponse(w, &errorResponse{Error: msg}, code)
}

// faultError responds with the status matching the kind of err.
func (a *Api) faultError(w http.ResponseWriter, err error) {
	a.jsonError(w, err.Error(), statusCode(err))
}

func statusCode(err error) int {
	switch {
	case fault.Is(err, fault.ErrInvalidState):
		return http.StatusConflict
	case fault.Is(err, fault.ErrInvalidAmount),
		fault.Is(err, fault.ErrInvalidPrice):
		return http.StatusBadRequest
	case fault.Is(err, fault.ErrNotConnected):
		return http.StatusServiceUnavailable
	case fault.Is(err, fault.ErrPaymentRejected):
		return http.StatusPaymentRequired
	case fault.Is(err, fault.ErrNodeRequestFailed),
		fault.Is(err, fault.ErrFeeInvoiceFailed),
		fault.Is(err, fault.ErrFeePaymentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
