package app

import (
	"context"
	"strings"

	"github.com/alxtravel/travel-api/internal/clock"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/shopspring/decimal"
)

type ListingRepository interface {
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)
	CreateListing(ctx context.Context, listing domain.Listing) error
	UpdateListing(ctx context.Context, listing domain.Listing) error
	DeleteListing(ctx context.Context, listingID string) error
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error)
}

type ListingService struct {
	repo  ListingRepository
	clock clock.Clock
}

func NewListingService(repo ListingRepository, clk clock.Clock) *ListingService {
	return &ListingService{
		repo:  repo,
		clock: clk,
	}
}

type ListingInput struct {
	Title         string
	Description   string
	PropertyType  string
	Address       string
	Amenities     []string
	PricePerNight decimal.Decimal
	Bedrooms      int
	Bathrooms     int
}

func (in ListingInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.ErrListingTitleRequired
	}
	if !in.PricePerNight.IsPositive() || in.Bedrooms < 0 || in.Bathrooms < 0 {
		return domain.ErrInvalidPrice
	}
	return nil
}

func (s *ListingService) Create(ctx context.Context, actor domain.Actor, in ListingInput) (domain.Listing, error) {
	if actor.Role != domain.RoleHost && !actor.IsAdmin() {
		return domain.Listing{}, domain.ErrPermissionDenied
	}
	if err := in.validate(); err != nil {
		return domain.Listing{}, err
	}

	now := s.clock.Now()
	listing := domain.Listing{
		ID:        newUUID(),
		HostID:    actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyListingInput(&listing, in)

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

func (s *ListingService) Get(ctx context.Context, listingID string) (domain.Listing, error) {
	return s.repo.GetListing(ctx, listingID)
}

func (s *ListingService) List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	if (filter.AvailableFrom == nil) != (filter.AvailableTo == nil) {
		return nil, domain.ErrInvalidDateRange
	}
	if filter.AvailableFrom != nil {
		if err := domain.ValidateDateRange(*filter.AvailableFrom, *filter.AvailableTo); err != nil {
			return nil, err
		}
	}
	if _, ok := domain.ListingOrderings[filter.OrderBy]; !ok {
		filter.OrderBy = "-created_at"
	}
	filter.Page = filter.Page.Normalize()
	return s.repo.ListListings(ctx, filter)
}

func (s *ListingService) Mine(ctx context.Context, actor domain.Actor, filter domain.ListingFilter) ([]domain.Listing, error) {
	filter.HostID = actor.UserID
	return s.List(ctx, filter)
}

func (s *ListingService) Update(ctx context.Context, actor domain.Actor, listingID string, in ListingInput) (domain.Listing, error) {
	if err := in.validate(); err != nil {
		return domain.Listing{}, err
	}
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	if !actor.CanManageListing(listing) {
		return domain.Listing{}, domain.ErrPermissionDenied
	}

	applyListingInput(&listing, in)
	listing.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return domain.Listing{}, err
	}
	return listing, nil
}

// Delete removes a listing. Listings with bookings are kept for the payment trail.
func (s *ListingService) Delete(ctx context.Context, actor domain.Actor, listingID string) error {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if !actor.CanManageListing(listing) {
		return domain.ErrPermissionDenied
	}
	return s.repo.DeleteListing(ctx, listing.ID)
}

func applyListingInput(l *domain.Listing, in ListingInput) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.PropertyType = strings.ToLower(strings.TrimSpace(in.PropertyType))
	l.Address = in.Address
	l.Amenities = in.Amenities
	if l.Amenities == nil {
		l.Amenities = []string{}
	}
	l.PricePerNight = in.PricePerNight
	l.Bedrooms = in.Bedrooms
	l.Bathrooms = in.Bathrooms
}
