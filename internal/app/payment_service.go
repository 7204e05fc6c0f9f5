package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alxtravel/travel-api/internal/clock"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/gateway"
	"github.com/alxtravel/travel-api/internal/metrics"
	"github.com/alxtravel/travel-api/internal/notify"
	"golang.org/x/sync/singleflight"
)

type PaymentRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	GetBookingForUpdate(ctx context.Context, bookingID string) (domain.Booking, error)
	GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error)
	HasConfirmedOverlap(ctx context.Context, listingID, excludeBookingID string, start, end time.Time) (bool, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, now time.Time) error
	GetPaymentByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
	GetPaymentByTxRef(ctx context.Context, txRef string) (domain.Payment, error)
	GetPaymentForUpdate(ctx context.Context, txRef string) (domain.Payment, error)
	CreatePayment(ctx context.Context, payment domain.Payment) error
	// UpdatePaymentOutcome moves a pending payment to a terminal status and
	// reports false when the row was no longer pending.
	UpdatePaymentOutcome(ctx context.Context, payment domain.Payment) (bool, error)
}

type Gateway interface {
	Initiate(ctx context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error)
	Verify(ctx context.Context, txRef string) (gateway.VerifyResult, error)
}

// PaymentService owns every Payment/Booking transition driven by the gateway.
type PaymentService struct {
	repo        PaymentRepository
	gateway     Gateway
	queue       notify.Queue
	clock       clock.Clock
	logger      *log.Logger
	currency    string
	returnURL   string
	callbackURL string
	verifies    singleflight.Group
}

const (
	defaultCurrency = "ETB"

	// enqueueTimeout bounds a hand-off to a remote queue after commit.
	enqueueTimeout = 5 * time.Second
)

type PaymentServiceOption func(*PaymentService)

func WithCurrency(currency string) PaymentServiceOption {
	return func(s *PaymentService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithRedirectURLs sets where the gateway sends the payer and its callback.
func WithRedirectURLs(returnURL, callbackURL string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.returnURL = returnURL
		s.callbackURL = callbackURL
	}
}

func WithPaymentLogger(logger *log.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewPaymentService(repo PaymentRepository, gw Gateway, queue notify.Queue, clk clock.Clock, opts ...PaymentServiceOption) *PaymentService {
	svc := &PaymentService{
		repo:     repo,
		gateway:  gw,
		queue:    queue,
		clock:    clk,
		logger:   log.Default(),
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type InitiateResult struct {
	Payment     domain.Payment
	CheckoutURL string
	TxRef       string
}

// Initiate opens the single payment attempt for a booking. Nothing is stored
// unless the gateway accepted the transaction.
func (s *PaymentService) Initiate(ctx context.Context, actor domain.Actor, bookingID string) (InitiateResult, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return InitiateResult{}, err
	}
	if !actor.CanManageBooking(booking) {
		return InitiateResult{}, domain.ErrPermissionDenied
	}
	if booking.Status == domain.BookingStatusCancelled || !booking.TotalPrice.IsPositive() {
		return InitiateResult{}, domain.ErrBookingNotPayable
	}

	existing, err := s.repo.GetPaymentByBookingID(ctx, booking.ID)
	if err != nil {
		return InitiateResult{}, err
	}
	if existing != nil {
		return InitiateResult{}, domain.ErrAlreadyInitiated
	}

	email, first, last := booking.GuestEmail, booking.GuestFirstName, booking.GuestLastName
	if email == "" {
		email, first, last = actor.Email, actor.FirstName, actor.LastName
	}

	txRef := newTxRef(booking.Reference)
	res, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		Amount:      booking.TotalPrice,
		Currency:    s.currency,
		Email:       email,
		FirstName:   first,
		LastName:    last,
		TxRef:       txRef,
		ReturnURL:   s.returnURL,
		CallbackURL: s.callbackURL,
		Title:       "Property Booking",
		Description: "Payment for booking " + booking.Reference,
	})
	if err != nil {
		s.logger.Printf("payment initiate failed booking_id=%s tx_ref=%s err=%v", booking.ID, txRef, err)
		return InitiateResult{}, err
	}

	now := s.clock.Now()
	payment := domain.Payment{
		ID:                 newUUID(),
		BookingID:          booking.ID,
		TxRef:              txRef,
		Amount:             booking.TotalPrice,
		Currency:           s.currency,
		Status:             domain.PaymentStatusPending,
		CheckoutURL:        res.CheckoutURL,
		InitiationResponse: res.Raw,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return InitiateResult{}, err
	}

	s.logger.Printf("payment initiated booking_id=%s tx_ref=%s amount=%s currency=%s", booking.ID, txRef, payment.Amount.StringFixed(2), payment.Currency)
	return InitiateResult{Payment: payment, CheckoutURL: res.CheckoutURL, TxRef: txRef}, nil
}

type ReconcileResult struct {
	Payment       domain.Payment
	Changed       bool
	GatewayStatus string
}

// Reconcile converges a payment with the gateway's view of its transaction.
// Terminal payments are returned as they are. Only the caller that moves the
// payment out of pending confirms the booking and enqueues the confirmation.
func (s *PaymentService) Reconcile(ctx context.Context, txRef string) (ReconcileResult, error) {
	if txRef == "" {
		return ReconcileResult{}, domain.ErrTxRefRequired
	}

	payment, err := s.repo.GetPaymentByTxRef(ctx, txRef)
	if err != nil {
		return ReconcileResult{}, err
	}
	if payment.Status.Terminal() {
		metrics.IncReconcile("unchanged")
		return ReconcileResult{Payment: payment}, nil
	}

	verified, err := s.verify(ctx, txRef)
	if err != nil {
		metrics.IncReconcile("error")
		s.logger.Printf("payment verify failed tx_ref=%s err=%v", txRef, err)
		return ReconcileResult{Payment: payment}, err
	}

	next := domain.NormalizeGatewayStatus(verified.Status)
	if next == domain.PaymentStatusPending {
		metrics.IncReconcile("pending")
		return ReconcileResult{Payment: payment, GatewayStatus: verified.Status}, nil
	}

	result := ReconcileResult{GatewayStatus: verified.Status}
	var confirmed bool
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetPaymentForUpdate(txCtx, txRef)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			result.Payment = current
			return nil
		}

		now := s.clock.Now()
		current.Status = next
		current.VerificationResponse = verified.Raw
		current.UpdatedAt = now
		if next == domain.PaymentStatusCompleted {
			current.PaidAt = &now
		}

		changed, err := s.repo.UpdatePaymentOutcome(txCtx, current)
		if err != nil {
			return err
		}
		if !changed {
			latest, err := s.repo.GetPaymentForUpdate(txCtx, txRef)
			if err != nil {
				return err
			}
			result.Payment = latest
			return nil
		}
		result.Payment = current
		result.Changed = true

		if next != domain.PaymentStatusCompleted {
			return nil
		}
		confirmed, err = s.confirmBooking(txCtx, current, now)
		return err
	})
	if err != nil {
		metrics.IncReconcile("error")
		return ReconcileResult{}, err
	}

	if !result.Changed {
		metrics.IncReconcile("unchanged")
		return result, nil
	}
	metrics.IncReconcile(string(result.Payment.Status))
	s.logger.Printf("payment transitioned tx_ref=%s booking_id=%s status=%s", txRef, result.Payment.BookingID, result.Payment.Status)

	if confirmed {
		s.enqueueConfirmation(ctx, result.Payment)
	}
	return result, nil
}

func (s *PaymentService) verify(ctx context.Context, txRef string) (gateway.VerifyResult, error) {
	v, err, _ := s.verifies.Do(txRef, func() (any, error) {
		return s.gateway.Verify(context.WithoutCancel(ctx), txRef)
	})
	if err != nil {
		return gateway.VerifyResult{}, err
	}
	return v.(gateway.VerifyResult), nil
}

// confirmBooking marks the paid booking confirmed and reports whether a
// confirmation should be sent.
func (s *PaymentService) confirmBooking(ctx context.Context, payment domain.Payment, now time.Time) (bool, error) {
	booking, err := s.repo.GetBookingForUpdate(ctx, payment.BookingID)
	if err != nil {
		return false, err
	}

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		return true, nil
	case domain.BookingStatusCancelled:
		s.logger.Printf("paid booking is cancelled booking_id=%s tx_ref=%s", booking.ID, payment.TxRef)
		return false, nil
	}

	if _, err := s.repo.GetListingForUpdate(ctx, booking.ListingID); err != nil {
		return false, fmt.Errorf("lock listing: %w", err)
	}
	overlap, err := s.repo.HasConfirmedOverlap(ctx, booking.ListingID, booking.ID, booking.StartDate, booking.EndDate)
	if err != nil {
		return false, err
	}
	if overlap {
		s.logger.Printf("paid booking overlaps a confirmed stay, left pending booking_id=%s tx_ref=%s", booking.ID, payment.TxRef)
		return false, nil
	}

	if err := s.repo.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusConfirmed, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *PaymentService) enqueueConfirmation(ctx context.Context, payment domain.Payment) {
	job := notify.Job{
		BookingID:  payment.BookingID,
		TxRef:      payment.TxRef,
		EnqueuedAt: s.clock.Now(),
	}
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := s.queue.Enqueue(enqueueCtx, job); err != nil {
		metrics.IncNotification("enqueue_failed")
		s.logger.Printf("notification enqueue failed booking_id=%s tx_ref=%s err=%v", payment.BookingID, payment.TxRef, err)
	}
}

type VerifyInput struct {
	TxRef     string
	BookingID string
}

type VerifyResult struct {
	Payment domain.Payment
	Changed bool
	Message string
}

// VerifyForActor resolves the caller's payment by tx ref or booking and
// reconciles it.
func (s *PaymentService) VerifyForActor(ctx context.Context, actor domain.Actor, in VerifyInput) (VerifyResult, error) {
	if in.TxRef == "" && in.BookingID == "" {
		return VerifyResult{}, domain.ErrVerifyTargetRequired
	}

	var payment domain.Payment
	if in.TxRef != "" {
		p, err := s.repo.GetPaymentByTxRef(ctx, in.TxRef)
		if err != nil {
			return VerifyResult{}, err
		}
		payment = p
	} else {
		p, err := s.repo.GetPaymentByBookingID(ctx, in.BookingID)
		if err != nil {
			return VerifyResult{}, err
		}
		if p == nil {
			return VerifyResult{}, domain.ErrPaymentNotFound
		}
		payment = *p
	}

	booking, err := s.repo.GetBooking(ctx, payment.BookingID)
	if err != nil {
		return VerifyResult{}, err
	}
	if !actor.CanManageBooking(booking) {
		return VerifyResult{}, domain.ErrPermissionDenied
	}

	res, err := s.Reconcile(ctx, payment.TxRef)
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Payment: res.Payment,
		Changed: res.Changed,
		Message: statusMessage(res.Payment.Status),
	}, nil
}

type WebhookEvent struct {
	TxRef  string
	Event  string
	Status string
}

// HandleWebhook reconciles the payment named by a gateway callback. The
// callback's own status is logged but the gateway is always re-queried.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev WebhookEvent) (ReconcileResult, error) {
	if ev.TxRef == "" {
		return ReconcileResult{}, domain.ErrTxRefRequired
	}
	s.logger.Printf("payment webhook tx_ref=%s event=%s reported_status=%s", ev.TxRef, ev.Event, ev.Status)

	res, err := s.Reconcile(ctx, ev.TxRef)
	if err != nil && !errors.Is(err, domain.ErrPaymentNotFound) {
		s.logger.Printf("payment webhook failed tx_ref=%s err=%v", ev.TxRef, err)
	}
	return res, err
}

// GetPayment returns the payment attached to a booking.
func (s *PaymentService) GetPayment(ctx context.Context, actor domain.Actor, bookingID string) (domain.Payment, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Payment{}, err
	}
	if !actor.CanManageBooking(booking) {
		return domain.Payment{}, domain.ErrPermissionDenied
	}
	p, err := s.repo.GetPaymentByBookingID(ctx, booking.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	if p == nil {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return *p, nil
}

func statusMessage(status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentStatusCompleted:
		return "Payment completed successfully"
	case domain.PaymentStatusFailed:
		return "Payment failed"
	default:
		return "Payment is still pending"
	}
}
