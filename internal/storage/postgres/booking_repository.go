package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/notify"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*store
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{store: &store{pool: pool}}
}

func (r *BookingRepository) CreateBooking(ctx context.Context, b domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, reference, listing_id, user_id, guest_email, guest_first_name, guest_last_name,
	start_date, end_date, total_price, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.exec(ctx, stmt,
		b.ID,
		b.Reference,
		b.ListingID,
		b.UserID,
		b.GuestEmail,
		b.GuestFirstName,
		b.GuestLastName,
		b.StartDate,
		b.EndDate,
		b.TotalPrice,
		b.Status,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create booking: duplicate reference %s: %w", b.Reference, err)
		}
		return mapBookingWriteError("create booking", err)
	}
	return nil
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, b domain.Booking) error {
	const stmt = `
UPDATE bookings
SET start_date = $2, end_date = $3, total_price = $4, status = $5, updated_at = $6
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, b.ID, b.StartDate, b.EndDate, b.TotalPrice, b.Status, b.UpdatedAt)
	if err != nil {
		return mapBookingWriteError("update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var c conditions
	if f.UserID != "" {
		c.add("b.user_id = ?", f.UserID)
	}
	if f.ListingID != "" {
		c.add("b.listing_id = ?", f.ListingID)
	}
	if f.HostID != "" {
		c.add("l.host_id = ?", f.HostID)
	}
	if f.From != nil {
		c.add("b.end_date > ?", *f.From)
	}
	if f.To != nil {
		c.add("b.start_date < ?", *f.To)
	}
	if f.ListingTitle != "" {
		c.add("l.title ILIKE ?", "%"+f.ListingTitle+"%")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b JOIN listings l ON l.id = b.listing_id` +
		c.where() + ` ORDER BY b.created_at DESC, b.id` + c.page(f.Page.Normalize())

	rows, err := r.query(ctx, query, c.args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// GetConfirmation loads what the booking confirmation message shows.
func (r *BookingRepository) GetConfirmation(ctx context.Context, bookingID string) (notify.Confirmation, error) {
	const query = `
SELECT b.id, b.reference, l.title, b.guest_first_name, b.guest_last_name, b.guest_email,
	b.start_date, b.end_date, COALESCE(p.amount, b.total_price), COALESCE(p.currency, '')
FROM bookings b
JOIN listings l ON l.id = b.listing_id
LEFT JOIN payments p ON p.booking_id = b.id
WHERE b.id = $1`

	var c notify.Confirmation
	var first, last string
	err := r.queryRow(ctx, query, bookingID).Scan(&c.BookingID, &c.Reference, &c.ListingTitle, &first, &last,
		&c.GuestEmail, &c.CheckIn, &c.CheckOut, &c.TotalPrice, &c.Currency)
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return notify.Confirmation{}, domain.ErrBookingNotFound
		}
		return notify.Confirmation{}, fmt.Errorf("get confirmation: %w", err)
	}
	c.GuestName = domain.Booking{GuestFirstName: first, GuestLastName: last}.GuestName()
	return c, nil
}
