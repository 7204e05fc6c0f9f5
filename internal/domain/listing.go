package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a property that can be booked by the night.
type Listing struct {
	ID            string
	HostID        string
	Title         string
	Description   string
	PropertyType  string
	Address       string
	Amenities     []string
	PricePerNight decimal.Decimal
	Bedrooms      int
	Bathrooms     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListingFilter narrows listing searches. Zero values are ignored.
type ListingFilter struct {
	HostID       string
	PropertyType string
	Bedrooms     int
	Bathrooms    int
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	// AvailableFrom/AvailableTo exclude listings with an active booking in the window.
	AvailableFrom *time.Time
	AvailableTo   *time.Time
	Search        string
	OrderBy       string
	Page          Page
}

// Listing orderings accepted by the store.
var ListingOrderings = map[string]string{
	"price_per_night":  "price_per_night ASC",
	"-price_per_night": "price_per_night DESC",
	"created_at":       "created_at ASC",
	"-created_at":      "created_at DESC",
}
