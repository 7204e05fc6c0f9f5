package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a stay at a listing. EndDate is the check-out day and is exclusive.
type Booking struct {
	ID             string
	Reference      string
	ListingID      string
	UserID         string
	GuestEmail     string
	GuestFirstName string
	GuestLastName  string
	StartDate      time.Time
	EndDate        time.Time
	TotalPrice     decimal.Decimal
	Status         BookingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (b Booking) GuestName() string {
	return strings.TrimSpace(b.GuestFirstName + " " + b.GuestLastName)
}

// Nights returns the number of nights between check-in and check-out.
func (b Booking) Nights() int {
	return Nights(b.StartDate, b.EndDate)
}

// Overlaps reports whether the stay intersects [start, end).
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && start.Before(b.EndDate)
}

func Nights(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// ValidateDateRange requires a check-out at least one night after check-in.
func ValidateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrInvalidDateRange
	}
	if Nights(start, end) < 1 {
		return ErrInvalidDateRange
	}
	return nil
}

// BookingFilter narrows booking listings. Zero values are ignored.
type BookingFilter struct {
	UserID       string
	ListingID    string
	HostID       string
	From         *time.Time
	To           *time.Time
	ListingTitle string
	Page         Page
}

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize clamps the page into the supported range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
