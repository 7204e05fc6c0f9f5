package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/gateway"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidQuery         = "invalid_query"
	codeInvalidDate          = "invalid_date"
	codeInvalidID            = "invalid_id"
	codeUnauthorized         = "unauthorized"
	codeInvalidSignature     = "invalid_signature"
	codeForbidden            = "forbidden"
	codeListingNotFound      = "listing_not_found"
	codeListingTitleRequired = "listing_title_required"
	codeInvalidPrice         = "invalid_price"
	codeListingHasBookings   = "listing_has_bookings"
	codeBookingNotFound      = "booking_not_found"
	codeInvalidDateRange     = "invalid_date_range"
	codeBookingOverlap       = "booking_overlap"
	codeBookingCancelled     = "booking_cancelled"
	codeBookingHasPayment    = "booking_has_payment"
	codeBookingNotPayable    = "booking_not_payable"
	codePaymentNotFound      = "payment_not_found"
	codeAlreadyInitiated     = "already_initiated"
	codeTxRefRequired        = "tx_ref_required"
	codeGatewayError         = "gateway_error"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrPermissionDenied, http.StatusForbidden, codeForbidden},
	{domain.ErrListingNotFound, http.StatusNotFound, codeListingNotFound},
	{domain.ErrListingTitleRequired, http.StatusBadRequest, codeListingTitleRequired},
	{domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{domain.ErrListingHasBookings, http.StatusConflict, codeListingHasBookings},
	{domain.ErrBookingNotFound, http.StatusNotFound, codeBookingNotFound},
	{domain.ErrInvalidDateRange, http.StatusBadRequest, codeInvalidDateRange},
	{domain.ErrBookingOverlap, http.StatusConflict, codeBookingOverlap},
	{domain.ErrBookingCancelled, http.StatusConflict, codeBookingCancelled},
	{domain.ErrBookingHasPayment, http.StatusConflict, codeBookingHasPayment},
	{domain.ErrBookingNotPayable, http.StatusConflict, codeBookingNotPayable},
	{domain.ErrPaymentNotFound, http.StatusNotFound, codePaymentNotFound},
	{domain.ErrAlreadyInitiated, http.StatusConflict, codeAlreadyInitiated},
	{domain.ErrVerifyTargetRequired, http.StatusBadRequest, codeMissingRequiredField},
	{domain.ErrTxRefRequired, http.StatusBadRequest, codeTxRefRequired},
}

// writeServiceError maps service errors onto a status and stable code.
// Anything unrecognised is logged and reported as an internal error.
func writeServiceError(w http.ResponseWriter, logger *log.Logger, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		if logger != nil {
			logger.Printf("gateway error op=%s status=%d err=%v", gwErr.Op, gwErr.StatusCode, gwErr.Err)
		}
		writeErrorResponse(w, http.StatusBadGateway, errorResponse{
			Error:     "payment gateway unavailable, try again",
			Code:      codeGatewayError,
			Retryable: gwErr.Retryable(),
		})
		return
	}

	if logger != nil {
		logger.Printf("internal error err=%v", err)
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
