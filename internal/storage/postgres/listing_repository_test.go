package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestListingRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewListingRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("create update delete", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		l := domain.Listing{
			ID:            uuid.NewString(),
			HostID:        "host-1",
			Title:         "Lakeside Cabin",
			PropertyType:  "cabin",
			Amenities:     []string{"wifi", "fireplace"},
			PricePerNight: decimal.RequireFromString("80.00"),
			Bedrooms:      2,
			Bathrooms:     1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repo.CreateListing(ctx, l); err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetListing(ctx, l.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Amenities) != 2 || !got.PricePerNight.Equal(l.PricePerNight) {
			t.Fatalf("unexpected listing %+v", got)
		}

		l.Title = "Cabin by the lake"
		if err := repo.UpdateListing(ctx, l); err != nil {
			t.Fatalf("update: %v", err)
		}

		testutil.InsertBooking(t, ctx, pool, l.ID, domain.Booking{UserID: "user-1", StartDate: now, EndDate: now.AddDate(0, 0, 1), TotalPrice: decimal.RequireFromString("80")})
		if err := repo.DeleteListing(ctx, l.ID); err != domain.ErrListingHasBookings {
			t.Fatalf("expected ErrListingHasBookings, got %v", err)
		}
		if err := repo.DeleteListing(ctx, uuid.NewString()); err != domain.ErrListingNotFound {
			t.Fatalf("expected ErrListingNotFound, got %v", err)
		}
	})

	t.Run("ListListings filters and orders", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		cheap := testutil.InsertListing(t, ctx, pool, "host-1", "Budget Room", "40.00")
		testutil.InsertListing(t, ctx, pool, "host-1", "Lakeside Cabin", "80.00")
		pricey := testutil.InsertListing(t, ctx, pool, "host-2", "Penthouse", "300.00")

		from := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
		testutil.InsertBooking(t, ctx, pool, cheap, domain.Booking{UserID: "user-1", StartDate: from, EndDate: from.AddDate(0, 0, 3), TotalPrice: decimal.RequireFromString("120")})

		minPrice := decimal.RequireFromString("50")
		cases := []struct {
			name   string
			filter domain.ListingFilter
			want   int
			first  string
		}{
			{"by host", domain.ListingFilter{HostID: "host-1"}, 2, ""},
			{"min price", domain.ListingFilter{MinPrice: &minPrice}, 2, ""},
			{"search", domain.ListingFilter{Search: "lake"}, 1, ""},
			{"available", domain.ListingFilter{AvailableFrom: ptr(from.AddDate(0, 0, 1)), AvailableTo: ptr(from.AddDate(0, 0, 2))}, 2, ""},
			{"price desc", domain.ListingFilter{OrderBy: "-price_per_night"}, 3, pricey},
			{"price asc", domain.ListingFilter{OrderBy: "price_per_night"}, 3, cheap},
		}
		for _, tc := range cases {
			got, err := repo.ListListings(ctx, tc.filter)
			if err != nil {
				t.Fatalf("%s: %v", tc.name, err)
			}
			if len(got) != tc.want {
				t.Fatalf("%s: expected %d listings, got %d", tc.name, tc.want, len(got))
			}
			if tc.first != "" && got[0].ID != tc.first {
				t.Fatalf("%s: expected %s first, got %s", tc.name, tc.first, got[0].ID)
			}
		}
	})
}
