package http

import (
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
)

const dateLayout = "2006-01-02"

type paymentResponse struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	TxRef       string     `json:"tx_ref"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	PaidAt      *time.Time `json:"paid_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPaymentResponse(p domain.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		TxRef:       p.TxRef,
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		Status:      string(p.Status),
		CheckoutURL: p.CheckoutURL,
		CreatedAt:   p.CreatedAt,
		PaidAt:      p.PaidAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type initiatePaymentResponse struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
	Status      string `json:"status"`
}

type verifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	TxRef   string `json:"tx_ref"`
}

type webhookResponse struct {
	Status string `json:"status"`
	TxRef  string `json:"tx_ref"`
}

type bookingResponse struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	GuestEmail string    `json:"guest_email,omitempty"`
	GuestName  string    `json:"guest_name,omitempty"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Nights     int       `json:"nights"`
	TotalPrice string    `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		Reference:  b.Reference,
		ListingID:  b.ListingID,
		UserID:     b.UserID,
		GuestEmail: b.GuestEmail,
		GuestName:  b.GuestName(),
		StartDate:  b.StartDate.Format(dateLayout),
		EndDate:    b.EndDate.Format(dateLayout),
		Nights:     b.Nights(),
		TotalPrice: b.TotalPrice.StringFixed(2),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

type listingResponse struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PropertyType  string    `json:"property_type"`
	Address       string    `json:"address"`
	Amenities     []string  `json:"amenities"`
	PricePerNight string    `json:"price_per_night"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toListingResponse(l domain.Listing) listingResponse {
	amenities := l.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return listingResponse{
		ID:            l.ID,
		HostID:        l.HostID,
		Title:         l.Title,
		Description:   l.Description,
		PropertyType:  l.PropertyType,
		Address:       l.Address,
		Amenities:     amenities,
		PricePerNight: l.PricePerNight.StringFixed(2),
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toListingResponses(listings []domain.Listing) []listingResponse {
	out := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l))
	}
	return out
}

type listResponse[T any] struct {
	Results []T `json:"results"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}
