package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrQueueClosed = errors.New("notification queue closed")
	ErrQueueFull   = errors.New("notification queue full")

	// ErrUndeliverable marks a confirmation that fails the same way on every
	// attempt, such as a booking without a guest email.
	ErrUndeliverable = errors.New("confirmation undeliverable")
)

// Job asks for one booking confirmation to be delivered.
type Job struct {
	BookingID  string    `json:"booking_id"`
	TxRef      string    `json:"tx_ref"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue accepts jobs for deferred delivery. Enqueue must not wait on the send.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Handler processes one dequeued job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// Confirmation is everything the confirmation message needs about a booking.
type Confirmation struct {
	BookingID    string
	Reference    string
	ListingTitle string
	GuestName    string
	GuestEmail   string
	CheckIn      time.Time
	CheckOut     time.Time
	TotalPrice   decimal.Decimal
	Currency     string
}

// ConfirmationStore loads confirmation details. It returns
// domain.ErrBookingNotFound when the booking is gone.
type ConfirmationStore interface {
	GetConfirmation(ctx context.Context, bookingID string) (Confirmation, error)
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DeliveryError reports a confirmation that could not be sent after every attempt.
type DeliveryError struct {
	BookingID string
	Attempts  int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notification delivery failed booking_id=%s attempts=%d: %v", e.BookingID, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
