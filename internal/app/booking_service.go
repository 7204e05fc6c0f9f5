package app

import (
	"context"
	"time"

	"github.com/alxtravel/travel-api/internal/clock"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/shopspring/decimal"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	GetListingForUpdate(ctx context.Context, listingID string) (domain.Listing, error)
	GetBooking(ctx context.Context, bookingID string) (domain.Booking, error)
	GetBookingForUpdate(ctx context.Context, bookingID string) (domain.Booking, error)
	HasConfirmedOverlap(ctx context.Context, listingID, excludeBookingID string, start, end time.Time) (bool, error)
	CreateBooking(ctx context.Context, booking domain.Booking) error
	UpdateBooking(ctx context.Context, booking domain.Booking) error
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	GetPaymentByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
}

type BookingService struct {
	repo  BookingRepository
	clock clock.Clock
}

func NewBookingService(repo BookingRepository, clk clock.Clock) *BookingService {
	return &BookingService{
		repo:  repo,
		clock: clk,
	}
}

type CreateBookingInput struct {
	ListingID string
	StartDate time.Time
	EndDate   time.Time
}

func (s *BookingService) Create(ctx context.Context, actor domain.Actor, in CreateBookingInput) (domain.Booking, error) {
	if err := s.validateStay(in.StartDate, in.EndDate); err != nil {
		return domain.Booking{}, err
	}

	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		listing, err := s.repo.GetListing(txCtx, in.ListingID)
		if err != nil {
			return err
		}

		overlap, err := s.repo.HasConfirmedOverlap(txCtx, listing.ID, "", in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrBookingOverlap
		}

		booking := domain.Booking{
			ID:             newUUID(),
			Reference:      newBookingReference(),
			ListingID:      listing.ID,
			UserID:         actor.UserID,
			GuestEmail:     actor.Email,
			GuestFirstName: actor.FirstName,
			GuestLastName:  actor.LastName,
			StartDate:      in.StartDate,
			EndDate:        in.EndDate,
			TotalPrice:     stayPrice(listing, in.StartDate, in.EndDate),
			Status:         domain.BookingStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.CreateBooking(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// Get returns a booking to its guest, the listing host or an admin.
func (s *BookingService) Get(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if actor.CanManageBooking(booking) {
		return booking, nil
	}
	listing, err := s.repo.GetListing(ctx, booking.ListingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !actor.CanManageListing(listing) {
		return domain.Booking{}, domain.ErrPermissionDenied
	}
	return booking, nil
}

// List returns the caller's bookings; admins see everyone's.
func (s *BookingService) List(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	filter.Page = filter.Page.Normalize()
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) Mine(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	filter.UserID = actor.UserID
	filter.Page = filter.Page.Normalize()
	return s.repo.ListBookings(ctx, filter)
}

// Host returns bookings made on the caller's listings.
func (s *BookingService) Host(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	if actor.Role != domain.RoleHost && !actor.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	filter.HostID = actor.UserID
	filter.Page = filter.Page.Normalize()
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) ForListing(ctx context.Context, actor domain.Actor, listingID string, filter domain.BookingFilter) ([]domain.Booking, error) {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageListing(listing) {
		return nil, domain.ErrPermissionDenied
	}
	filter.ListingID = listing.ID
	filter.Page = filter.Page.Normalize()
	return s.repo.ListBookings(ctx, filter)
}

func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !actor.CanManageBooking(booking) {
			return domain.ErrPermissionDenied
		}
		if booking.Status == domain.BookingStatusCancelled {
			return domain.ErrBookingCancelled
		}

		booking.Status = domain.BookingStatusCancelled
		booking.UpdatedAt = now
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

type RescheduleInput struct {
	StartDate time.Time
	EndDate   time.Time
}

// Reschedule moves an unpaid booking to new dates and reprices it.
func (s *BookingService) Reschedule(ctx context.Context, actor domain.Actor, bookingID string, in RescheduleInput) (domain.Booking, error) {
	if err := s.validateStay(in.StartDate, in.EndDate); err != nil {
		return domain.Booking{}, err
	}

	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !actor.CanManageBooking(booking) {
			return domain.ErrPermissionDenied
		}
		if booking.Status == domain.BookingStatusCancelled {
			return domain.ErrBookingCancelled
		}
		payment, err := s.repo.GetPaymentByBookingID(txCtx, booking.ID)
		if err != nil {
			return err
		}
		if payment != nil {
			return domain.ErrBookingHasPayment
		}

		listing, err := s.repo.GetListingForUpdate(txCtx, booking.ListingID)
		if err != nil {
			return err
		}
		overlap, err := s.repo.HasConfirmedOverlap(txCtx, listing.ID, booking.ID, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrBookingOverlap
		}

		booking.StartDate = in.StartDate
		booking.EndDate = in.EndDate
		booking.TotalPrice = stayPrice(listing, in.StartDate, in.EndDate)
		booking.UpdatedAt = now
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// Confirm lets the listing host or an admin confirm a booking directly.
func (s *BookingService) Confirm(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.GetBookingForUpdate(txCtx, bookingID)
		if err != nil {
			return err
		}
		listing, err := s.repo.GetListingForUpdate(txCtx, booking.ListingID)
		if err != nil {
			return err
		}
		if !actor.CanManageListing(listing) {
			return domain.ErrPermissionDenied
		}
		switch booking.Status {
		case domain.BookingStatusCancelled:
			return domain.ErrBookingCancelled
		case domain.BookingStatusConfirmed:
			result = booking
			return nil
		}

		overlap, err := s.repo.HasConfirmedOverlap(txCtx, listing.ID, booking.ID, booking.StartDate, booking.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrBookingOverlap
		}

		booking.Status = domain.BookingStatusConfirmed
		booking.UpdatedAt = now
		if err := s.repo.UpdateBooking(txCtx, booking); err != nil {
			return err
		}
		result = booking
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

func (s *BookingService) validateStay(start, end time.Time) error {
	if err := domain.ValidateDateRange(start, end); err != nil {
		return err
	}
	if start.Before(clock.Today(s.clock)) {
		return domain.ErrInvalidDateRange
	}
	return nil
}

func stayPrice(listing domain.Listing, start, end time.Time) decimal.Decimal {
	return listing.PricePerNight.Mul(decimal.NewFromInt(int64(domain.Nights(start, end))))
}
