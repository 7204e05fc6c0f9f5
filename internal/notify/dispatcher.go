package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	defaultMaxBackoff  = time.Minute
)

// Dispatcher delivers booking confirmations with bounded retries.
type Dispatcher struct {
	store       ConfirmationStore
	sender      Sender
	logger      *log.Logger
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type DispatcherOption func(*Dispatcher)

func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before the second attempt; it doubles up to max.
func WithBackoff(base, max time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if base > 0 {
			d.backoff = base
		}
		if max > 0 {
			d.maxBackoff = max
		}
	}
}

func WithDispatcherLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDispatcher(store ConfirmationStore, sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		logger:      log.Default(),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		maxBackoff:  defaultMaxBackoff,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle sends the confirmation for job. A missing booking is dropped and
// returns nil. Exhausted retries and undeliverable confirmations return a
// *DeliveryError after logging it; callers only record it.
func (d *Dispatcher) Handle(ctx context.Context, job Job) error {
	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, d.delay(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		err := d.deliver(ctx, job)
		if err == nil {
			metrics.IncNotification("sent")
			d.logger.Printf("notification sent booking_id=%s tx_ref=%s attempt=%d", job.BookingID, job.TxRef, attempt)
			return nil
		}
		if errors.Is(err, domain.ErrBookingNotFound) {
			metrics.IncNotification("dropped")
			d.logger.Printf("notification dropped booking_id=%s tx_ref=%s reason=booking_not_found", job.BookingID, job.TxRef)
			return nil
		}
		if errors.Is(err, ErrUndeliverable) {
			return d.fail(job, attempt, err)
		}

		lastErr = err
		d.logger.Printf("notification attempt failed booking_id=%s attempt=%d/%d err=%v", job.BookingID, attempt, d.maxAttempts, err)
	}

	return d.fail(job, d.maxAttempts, lastErr)
}

func (d *Dispatcher) fail(job Job, attempts int, err error) error {
	metrics.IncNotification("failed")
	d.logger.Printf("NotificationDeliveryFailure booking_id=%s tx_ref=%s attempts=%d err=%v", job.BookingID, job.TxRef, attempts, err)
	return &DeliveryError{BookingID: job.BookingID, Attempts: attempts, Err: err}
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) error {
	c, err := d.store.GetConfirmation(ctx, job.BookingID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.GuestEmail) == "" {
		return fmt.Errorf("%w: booking %s has no guest email", ErrUndeliverable, c.BookingID)
	}
	msg, err := RenderConfirmation(c)
	if err != nil {
		return fmt.Errorf("%w: render: %v", ErrUndeliverable, err)
	}
	return d.sender.Send(ctx, msg)
}

// delay returns the wait before retry n (1-based).
func (d *Dispatcher) delay(n int) time.Duration {
	wait := d.backoff
	for i := 1; i < n; i++ {
		wait *= 2
		if wait >= d.maxBackoff {
			return d.maxBackoff
		}
	}
	if wait > d.maxBackoff {
		return d.maxBackoff
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
