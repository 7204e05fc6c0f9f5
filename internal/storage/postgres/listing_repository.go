package postgres

import (
	"context"
	"fmt"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepository struct {
	*store
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{store: &store{pool: pool}}
}

func (r *ListingRepository) CreateListing(ctx context.Context, l domain.Listing) error {
	const stmt = `
INSERT INTO listings (id, host_id, title, description, property_type, address, amenities, price_per_night,
	bedrooms, bathrooms, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.exec(ctx, stmt,
		l.ID,
		l.HostID,
		l.Title,
		l.Description,
		l.PropertyType,
		l.Address,
		amenities(l.Amenities),
		l.PricePerNight,
		l.Bedrooms,
		l.Bathrooms,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) UpdateListing(ctx context.Context, l domain.Listing) error {
	const stmt = `
UPDATE listings
SET title = $2, description = $3, property_type = $4, address = $5, amenities = $6,
	price_per_night = $7, bedrooms = $8, bathrooms = $9, updated_at = $10
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, l.ID, l.Title, l.Description, l.PropertyType, l.Address, amenities(l.Amenities),
		l.PricePerNight, l.Bedrooms, l.Bathrooms, l.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) DeleteListing(ctx context.Context, listingID string) error {
	tag, err := r.exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrListingHasBookings
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) ListListings(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	var c conditions
	if f.HostID != "" {
		c.add("host_id = ?", f.HostID)
	}
	if f.PropertyType != "" {
		c.add("property_type = ?", f.PropertyType)
	}
	if f.Bedrooms > 0 {
		c.add("bedrooms >= ?", f.Bedrooms)
	}
	if f.Bathrooms > 0 {
		c.add("bathrooms >= ?", f.Bathrooms)
	}
	if f.MinPrice != nil {
		c.add("price_per_night >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		c.add("price_per_night <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		c.add("(title ILIKE ? OR description ILIKE ? OR address ILIKE ?)", pattern, pattern, pattern)
	}
	if f.AvailableFrom != nil && f.AvailableTo != nil {
		c.add(`NOT EXISTS (
	SELECT 1 FROM bookings b
	WHERE b.listing_id = listings.id AND b.status IN ('pending', 'confirmed')
	  AND b.start_date < ? AND b.end_date > ?)`, *f.AvailableTo, *f.AvailableFrom)
	}

	order, ok := domain.ListingOrderings[f.OrderBy]
	if !ok {
		order = domain.ListingOrderings["-created_at"]
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + c.where() + ` ORDER BY ` + order + `, id` + c.page(f.Page.Normalize())

	rows, err := r.query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

func amenities(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}
