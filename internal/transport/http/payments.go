package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/gateway"
)

// PaymentAPI is the slice of the payment service the handlers need.
type PaymentAPI interface {
	Initiate(ctx context.Context, actor domain.Actor, bookingID string) (app.InitiateResult, error)
	VerifyForActor(ctx context.Context, actor domain.Actor, in app.VerifyInput) (app.VerifyResult, error)
	HandleWebhook(ctx context.Context, ev app.WebhookEvent) (app.ReconcileResult, error)
	GetPayment(ctx context.Context, actor domain.Actor, bookingID string) (domain.Payment, error)
}

type initiatePaymentRequest struct {
	BookingID string `json:"booking_id"`
}

// HandleInitiatePayment opens the payment attempt for a booking.
func HandleInitiatePayment(svc PaymentAPI, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requestActor(w, r)
		if !ok {
			return
		}
		var req initiatePaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.BookingID) == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "booking_id is required")
			return
		}

		res, err := svc.Initiate(r.Context(), actor, req.BookingID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, initiatePaymentResponse{
			CheckoutURL: res.CheckoutURL,
			TxRef:       res.TxRef,
			Status:      string(res.Payment.Status),
		})
	}
}

type verifyPaymentRequest struct {
	TxRef     string `json:"tx_ref"`
	BookingID string `json:"booking_id"`
}

// HandleVerifyPayment reconciles the caller's payment with the gateway.
func HandleVerifyPayment(svc PaymentAPI, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requestActor(w, r)
		if !ok {
			return
		}
		var req verifyPaymentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := svc.VerifyForActor(r.Context(), actor, app.VerifyInput{
			TxRef:     strings.TrimSpace(req.TxRef),
			BookingID: strings.TrimSpace(req.BookingID),
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, verifyPaymentResponse{
			Status:  string(res.Payment.Status),
			Message: res.Message,
			TxRef:   res.Payment.TxRef,
		})
	}
}

// HandleBookingPayment returns the payment attached to a booking.
func HandleBookingPayment(svc PaymentAPI, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requestActor(w, r)
		if !ok {
			return
		}
		payment, err := svc.GetPayment(r.Context(), actor, pathVar(r, "id"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toPaymentResponse(payment))
	}
}

type webhookRequest struct {
	TxRef  string `json:"tx_ref"`
	TrxRef string `json:"trx_ref"`
	Event  string `json:"event"`
	Status string `json:"status"`
}

// HandlePaymentWebhook accepts gateway callbacks. The body must carry a valid
// HMAC signature; any non-2xx answer makes the gateway redeliver.
func HandlePaymentWebhook(svc PaymentAPI, secret string, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if !gateway.VerifySignature(secret, body, gateway.SignatureFromHeader(r.Header)) {
			logger.Printf("payment webhook rejected reason=invalid_signature remote=%s", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, codeInvalidSignature, "invalid signature")
			return
		}

		var req webhookRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		txRef := strings.TrimSpace(req.TxRef)
		if txRef == "" {
			txRef = strings.TrimSpace(req.TrxRef)
		}

		res, err := svc.HandleWebhook(r.Context(), app.WebhookEvent{
			TxRef:  txRef,
			Event:  req.Event,
			Status: req.Status,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, webhookResponse{
			Status: string(res.Payment.Status),
			TxRef:  res.Payment.TxRef,
		})
	}
}
