package domain

import "errors"

var (
	ErrInvalidID            = errors.New("invalid id")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrListingNotFound      = errors.New("listing not found")
	ErrListingTitleRequired = errors.New("listing title required")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrListingHasBookings   = errors.New("listing has bookings")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidDateRange     = errors.New("invalid date range")
	ErrBookingOverlap       = errors.New("dates overlap a confirmed booking")
	ErrBookingCancelled     = errors.New("booking is cancelled")
	ErrBookingHasPayment    = errors.New("booking already has a payment")
	ErrBookingNotPayable    = errors.New("booking cannot be paid")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrAlreadyInitiated     = errors.New("payment already initiated for booking")
	ErrVerifyTargetRequired = errors.New("tx_ref or booking_id required")
	ErrTxRefRequired        = errors.New("tx_ref required")
)
