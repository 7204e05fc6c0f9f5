package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// store holds the queries shared by the repositories: the booking and
// listing reads and locks that both booking and payment flows need.
type store struct {
	pool *pgxpool.Pool
}

func (s *store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

const listingColumns = `id, host_id, title, description, property_type, address, amenities, price_per_night, bedrooms, bathrooms, created_at, updated_at`

const bookingColumns = `b.id, b.reference, b.listing_id, b.user_id, b.guest_email, b.guest_first_name, b.guest_last_name,
b.start_date, b.end_date, b.total_price, b.status, b.created_at, b.updated_at`

const paymentColumns = `id, booking_id, tx_ref, amount, currency, status, checkout_url, initiation_response,
verification_response, created_at, paid_at, updated_at`

func (s *store) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	return s.getListing(ctx, listingID, "")
}

// GetListingForUpdate locks the listing row; booking confirmations on one
// listing serialize on it.
func (s *store) GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error) {
	return s.getListing(ctx, listingID, " FOR UPDATE")
}

func (s *store) getListing(ctx context.Context, listingID, lock string) (domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1` + lock
	l, err := scanListing(s.queryRow(ctx, query, listingID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Listing{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Listing{}, domain.ErrListingNotFound
		}
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (s *store) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	return s.getBooking(ctx, bookingID, "")
}

func (s *store) GetBookingForUpdate(ctx context.Context, bookingID string) (domain.Booking, error) {
	return s.getBooking(ctx, bookingID, " FOR UPDATE")
}

func (s *store) getBooking(ctx context.Context, bookingID, lock string) (domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1` + lock
	b, err := scanBooking(s.queryRow(ctx, query, bookingID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// HasConfirmedOverlap reports whether a confirmed booking other than
// excludeBookingID occupies any night of [start, end).
func (s *store) HasConfirmedOverlap(ctx context.Context, listingID, excludeBookingID string, start, end time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM bookings
	WHERE listing_id = $1
	  AND status = 'confirmed'
	  AND ($2::uuid IS NULL OR id <> $2::uuid)
	  AND start_date < $4
	  AND end_date > $3
)`
	var exists bool
	if err := s.queryRow(ctx, query, listingID, nullableID(excludeBookingID), start, end).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check booking overlap: %w", err)
	}
	return exists, nil
}

func (s *store) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, now time.Time) error {
	const stmt = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := s.exec(ctx, stmt, bookingID, status, now)
	if err != nil {
		return mapBookingWriteError("update booking status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (s *store) GetPaymentByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	p, err := scanPayment(s.queryRow(ctx, query, bookingID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by booking: %w", err)
	}
	return &p, nil
}

func mapBookingWriteError(op string, err error) error {
	switch {
	case isExclusionViolation(err):
		return domain.ErrBookingOverlap
	case isInvalidUUID(err):
		return domain.ErrInvalidID
	case isForeignKeyViolation(err):
		return domain.ErrListingNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var l domain.Listing
	err := row.Scan(&l.ID, &l.HostID, &l.Title, &l.Description, &l.PropertyType, &l.Address, &l.Amenities,
		&l.PricePerNight, &l.Bedrooms, &l.Bathrooms, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Reference, &b.ListingID, &b.UserID, &b.GuestEmail, &b.GuestFirstName, &b.GuestLastName,
		&b.StartDate, &b.EndDate, &b.TotalPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanPayment(row pgx.Row) (domain.Payment, error) {
	var p domain.Payment
	var initiation, verification []byte
	err := row.Scan(&p.ID, &p.BookingID, &p.TxRef, &p.Amount, &p.Currency, &p.Status, &p.CheckoutURL,
		&initiation, &verification, &p.CreatedAt, &p.PaidAt, &p.UpdatedAt)
	p.InitiationResponse = initiation
	p.VerificationResponse = verification
	return p, err
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func rawJSON(b []byte) []byte {
	if len(b) == 0 {
		return []byte(`{}`)
	}
	return b
}

// conditions builds a WHERE clause with positional arguments. Each clause
// uses ? for its arguments.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, args ...any) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the SQL suffix.
func (c *conditions) page(p domain.Page) string {
	c.args = append(c.args, p.Limit, p.Offset)
	n := len(c.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}

func (s *store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}
