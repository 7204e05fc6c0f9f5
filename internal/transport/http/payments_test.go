package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/gateway"
	"github.com/shopspring/decimal"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHandleInitiatePayment(t *testing.T) {
	t.Parallel()

	pending := domain.Payment{TxRef: "txn_abc_BK1", Status: domain.PaymentStatusPending}

	tests := []struct {
		name           string
		actor          domain.Actor
		body           string
		err            error
		expectedStatus int
		expectedCode   string
		retryable      bool
	}{
		{name: "created", actor: actorGuest, body: `{"booking_id":"b-1"}`, expectedStatus: http.StatusCreated},
		{name: "no token", body: `{"booking_id":"b-1"}`, expectedStatus: http.StatusUnauthorized, expectedCode: codeUnauthorized},
		{name: "missing booking id", actor: actorGuest, body: `{}`, expectedStatus: http.StatusBadRequest, expectedCode: codeMissingRequiredField},
		{name: "unknown field", actor: actorGuest, body: `{"booking":"b-1"}`, expectedStatus: http.StatusBadRequest, expectedCode: codeInvalidRequestBody},
		{name: "not owner", actor: actorGuest, body: `{"booking_id":"b-1"}`, err: domain.ErrPermissionDenied, expectedStatus: http.StatusForbidden, expectedCode: codeForbidden},
		{name: "booking missing", actor: actorGuest, body: `{"booking_id":"b-1"}`, err: domain.ErrBookingNotFound, expectedStatus: http.StatusNotFound, expectedCode: codeBookingNotFound},
		{name: "already initiated", actor: actorGuest, body: `{"booking_id":"b-1"}`, err: domain.ErrAlreadyInitiated, expectedStatus: http.StatusConflict, expectedCode: codeAlreadyInitiated},
		{name: "not payable", actor: actorGuest, body: `{"booking_id":"b-1"}`, err: domain.ErrBookingNotPayable, expectedStatus: http.StatusConflict, expectedCode: codeBookingNotPayable},
		{
			name:           "gateway down",
			actor:          actorGuest,
			body:           `{"booking_id":"b-1"}`,
			err:            &gateway.GatewayError{Op: "initialize", Err: errors.New("connection refused")},
			expectedStatus: http.StatusBadGateway,
			expectedCode:   codeGatewayError,
			retryable:      true,
		},
		{name: "internal", actor: actorGuest, body: `{"booking_id":"b-1"}`, err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedCode: codeInternalError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			var gotActor domain.Actor
			s.payments.initiate = func(actor domain.Actor, bookingID string) (app.InitiateResult, error) {
				gotActor = actor
				if tt.err != nil {
					return app.InitiateResult{}, tt.err
				}
				return app.InitiateResult{Payment: pending, CheckoutURL: "https://pay.example/abc", TxRef: pending.TxRef}, nil
			}

			rec := s.do(t, http.MethodPost, "/api/payments", tt.actor, tt.body)
			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedCode != "" {
				resp := decodeError(t, rec)
				if resp.Code != tt.expectedCode || resp.Retryable != tt.retryable {
					t.Fatalf("unexpected error response %+v", resp)
				}
				return
			}

			var resp initiatePaymentResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.CheckoutURL != "https://pay.example/abc" || resp.TxRef != "txn_abc_BK1" || resp.Status != "pending" {
				t.Fatalf("unexpected response %+v", resp)
			}
			if gotActor.UserID != actorGuest.UserID || gotActor.Email != actorGuest.Email || gotActor.Role != domain.RoleGuest {
				t.Fatalf("actor not passed through: %+v", gotActor)
			}
		})
	}
}

func TestHandleVerifyPayment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "completed", body: `{"tx_ref":"txn_abc_BK1"}`, expectedStatus: http.StatusOK},
		{name: "by booking", body: `{"booking_id":"b-1"}`, expectedStatus: http.StatusOK},
		{name: "neither given", body: `{}`, err: domain.ErrVerifyTargetRequired, expectedStatus: http.StatusBadRequest, expectedCode: codeMissingRequiredField},
		{name: "unknown", body: `{"tx_ref":"txn_deadbeef_XYZ"}`, err: domain.ErrPaymentNotFound, expectedStatus: http.StatusNotFound, expectedCode: codePaymentNotFound},
		{name: "gateway timeout", body: `{"tx_ref":"txn_abc_BK1"}`, err: &gateway.GatewayError{Op: "verify", Err: errors.New("deadline")}, expectedStatus: http.StatusBadGateway, expectedCode: codeGatewayError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			var gotInput app.VerifyInput
			s.payments.verify = func(_ domain.Actor, in app.VerifyInput) (app.VerifyResult, error) {
				gotInput = in
				if tt.err != nil {
					return app.VerifyResult{}, tt.err
				}
				return app.VerifyResult{
					Payment: domain.Payment{TxRef: "txn_abc_BK1", Status: domain.PaymentStatusCompleted},
					Changed: true,
					Message: "Payment completed successfully",
				}, nil
			}

			rec := s.do(t, http.MethodPost, "/api/payments/verify", actorGuest, tt.body)
			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedCode != "" {
				if resp := decodeError(t, rec); resp.Code != tt.expectedCode {
					t.Fatalf("expected code %s, got %+v", tt.expectedCode, resp)
				}
				return
			}

			var resp verifyPaymentResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != "completed" || resp.Message != "Payment completed successfully" || resp.TxRef != "txn_abc_BK1" {
				t.Fatalf("unexpected response %+v", resp)
			}
			if gotInput.TxRef == "" && gotInput.BookingID == "" {
				t.Fatalf("expected verify target to be passed, got %+v", gotInput)
			}
		})
	}
}

func TestHandleBookingPayment(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	paidAt := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	var gotBooking string
	s.payments.get = func(_ domain.Actor, bookingID string) (domain.Payment, error) {
		gotBooking = bookingID
		return domain.Payment{
			ID:        "p-1",
			BookingID: bookingID,
			TxRef:     "txn_abc_BK1",
			Amount:    decimal.RequireFromString("100"),
			Currency:  "ETB",
			Status:    domain.PaymentStatusCompleted,
			PaidAt:    &paidAt,
		}, nil
	}

	rec := s.do(t, http.MethodGet, "/api/bookings/b-1/payment", actorGuest, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotBooking != "b-1" {
		t.Fatalf("expected booking id from path, got %q", gotBooking)
	}
	var resp paymentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Amount != "100.00" || resp.Status != "completed" || resp.PaidAt == nil {
		t.Fatalf("unexpected payment %+v", resp)
	}
}

func newWebhookRequest(t *testing.T, body, header, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, signature)
	}
	return req
}

func TestHandlePaymentWebhook(t *testing.T) {
	t.Parallel()

	completed := app.ReconcileResult{
		Payment: domain.Payment{TxRef: "txn_abc_BK1", Status: domain.PaymentStatusCompleted},
		Changed: true,
	}

	tests := []struct {
		name           string
		body           string
		header         string
		signature      string
		err            error
		expectedStatus int
		expectedTxRef  string
	}{
		{name: "processed", body: `{"tx_ref":"txn_abc_BK1","event":"charge.success","status":"success"}`, header: "Chapa-Signature", expectedStatus: http.StatusOK, expectedTxRef: "txn_abc_BK1"},
		{name: "alternate header", body: `{"tx_ref":"txn_abc_BK1","event":"charge.success"}`, header: "x-chapa-signature", expectedStatus: http.StatusOK, expectedTxRef: "txn_abc_BK1"},
		{name: "trx_ref field", body: `{"trx_ref":"txn_abc_BK1","status":"success"}`, header: "Chapa-Signature", expectedStatus: http.StatusOK, expectedTxRef: "txn_abc_BK1"},
		{name: "missing signature", body: `{"tx_ref":"txn_abc_BK1"}`, expectedStatus: http.StatusUnauthorized},
		{name: "bad signature", body: `{"tx_ref":"txn_abc_BK1"}`, header: "Chapa-Signature", signature: "deadbeef", expectedStatus: http.StatusUnauthorized},
		{name: "bad json", body: `{"tx_ref":`, header: "Chapa-Signature", expectedStatus: http.StatusBadRequest},
		{name: "missing tx ref", body: `{"event":"charge.success"}`, header: "Chapa-Signature", err: domain.ErrTxRefRequired, expectedStatus: http.StatusBadRequest},
		{name: "unknown payment", body: `{"tx_ref":"txn_deadbeef_XYZ"}`, header: "Chapa-Signature", err: domain.ErrPaymentNotFound, expectedStatus: http.StatusNotFound, expectedTxRef: "txn_deadbeef_XYZ"},
		{name: "gateway error", body: `{"tx_ref":"txn_abc_BK1"}`, header: "Chapa-Signature", err: &gateway.GatewayError{Op: "verify", StatusCode: 503}, expectedStatus: http.StatusBadGateway, expectedTxRef: "txn_abc_BK1"},
		{name: "internal", body: `{"tx_ref":"txn_abc_BK1"}`, header: "Chapa-Signature", err: errors.New("db down"), expectedStatus: http.StatusInternalServerError, expectedTxRef: "txn_abc_BK1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t)
			calls := 0
			s.payments.webhook = func(ev app.WebhookEvent) (app.ReconcileResult, error) {
				calls++
				if tt.err != nil {
					return app.ReconcileResult{}, tt.err
				}
				return completed, nil
			}

			sig := tt.signature
			if sig == "" && tt.header != "" {
				sig = gateway.Sign(testWebhookSecret, []byte(tt.body))
			}
			rec := httptest.NewRecorder()
			s.handler.ServeHTTP(rec, newWebhookRequest(t, tt.body, tt.header, sig))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedTxRef != "" && s.payments.lastWebhook.TxRef != tt.expectedTxRef {
				t.Fatalf("expected tx ref %q, got %q", tt.expectedTxRef, s.payments.lastWebhook.TxRef)
			}
			if rec.Code == http.StatusUnauthorized && calls != 0 {
				t.Fatalf("service must not run for unsigned webhooks")
			}
		})
	}
}

func TestHandlePaymentWebhook_NoSecretRejects(t *testing.T) {
	t.Parallel()

	payments := &fakePayments{webhook: func(app.WebhookEvent) (app.ReconcileResult, error) {
		t.Fatalf("service must not be called")
		return app.ReconcileResult{}, nil
	}}
	handler := HandlePaymentWebhook(payments, "", nil)

	body := `{"tx_ref":"txn_abc_BK1"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newWebhookRequest(t, body, "Chapa-Signature", gateway.Sign("", []byte(body))))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a configured secret, got %d", rec.Code)
	}
}
