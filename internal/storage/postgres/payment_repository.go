package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	*store
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{store: &store{pool: pool}}
}

func (r *PaymentRepository) GetPaymentByTxRef(ctx context.Context, txRef string) (domain.Payment, error) {
	return r.getPayment(ctx, txRef, "")
}

func (r *PaymentRepository) GetPaymentForUpdate(ctx context.Context, txRef string) (domain.Payment, error) {
	return r.getPayment(ctx, txRef, " FOR UPDATE")
}

func (r *PaymentRepository) getPayment(ctx context.Context, txRef, lock string) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tx_ref = $1` + lock
	p, err := scanPayment(r.queryRow(ctx, query, txRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Payment{}, domain.ErrPaymentNotFound
		}
		return domain.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// CreatePayment inserts a new attempt. The unique booking_id index turns a
// concurrent second attempt into ErrAlreadyInitiated.
func (r *PaymentRepository) CreatePayment(ctx context.Context, p domain.Payment) error {
	const stmt = `
INSERT INTO payments (id, booking_id, tx_ref, amount, currency, status, checkout_url,
	initiation_response, verification_response, created_at, paid_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.exec(ctx, stmt,
		p.ID,
		p.BookingID,
		p.TxRef,
		p.Amount,
		p.Currency,
		p.Status,
		p.CheckoutURL,
		rawJSON(p.InitiationResponse),
		rawJSON(p.VerificationResponse),
		p.CreatedAt,
		p.PaidAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "payments_tx_ref_key" {
				return fmt.Errorf("create payment: duplicate tx_ref %s: %w", p.TxRef, err)
			}
			return domain.ErrAlreadyInitiated
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBookingNotFound
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// UpdatePaymentOutcome writes a terminal status only while the row is still
// pending and reports whether it did.
func (r *PaymentRepository) UpdatePaymentOutcome(ctx context.Context, p domain.Payment) (bool, error) {
	const stmt = `
UPDATE payments
SET status = $2, verification_response = $3, paid_at = $4, updated_at = $5
WHERE tx_ref = $1 AND status = 'pending'`

	tag, err := r.exec(ctx, stmt, p.TxRef, p.Status, rawJSON(p.VerificationResponse), p.PaidAt, p.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update payment outcome: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
