package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Payment is the single payment attempt owned by a booking.
// PaidAt is set if and only if Status is completed.
type Payment struct {
	ID                   string
	BookingID            string
	TxRef                string
	Amount               decimal.Decimal
	Currency             string
	Status               PaymentStatus
	CheckoutURL          string
	InitiationResponse   json.RawMessage
	VerificationResponse json.RawMessage
	CreatedAt            time.Time
	PaidAt               *time.Time
	UpdatedAt            time.Time
}

// NormalizeGatewayStatus maps a gateway-reported transaction status onto a
// payment status. Unknown values keep the payment pending.
func NormalizeGatewayStatus(status string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return PaymentStatusCompleted
	case "failed", "cancelled":
		return PaymentStatusFailed
	default:
		return PaymentStatusPending
	}
}
