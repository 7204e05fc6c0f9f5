package http

import (
	"context"
	"log"
	"net/http"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/shopspring/decimal"
)

// ListingAPI is the slice of the listing service the handlers need.
type ListingAPI interface {
	Create(ctx context.Context, actor domain.Actor, in app.ListingInput) (domain.Listing, error)
	Get(ctx context.Context, listingID string) (domain.Listing, error)
	List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error)
	Mine(ctx context.Context, actor domain.Actor, filter domain.ListingFilter) ([]domain.Listing, error)
	Update(ctx context.Context, actor domain.Actor, listingID string, in app.ListingInput) (domain.Listing, error)
	Delete(ctx context.Context, actor domain.Actor, listingID string) error
}

type ListingHandlers struct {
	svc    ListingAPI
	logger *log.Logger
}

func NewListingHandlers(svc ListingAPI, logger *log.Logger) *ListingHandlers {
	return &ListingHandlers{svc: svc, logger: logger}
}

type listingRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	PropertyType  string          `json:"property_type"`
	Address       string          `json:"address"`
	Amenities     []string        `json:"amenities"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     int             `json:"bathrooms"`
}

func (req listingRequest) input() app.ListingInput {
	return app.ListingInput{
		Title:         req.Title,
		Description:   req.Description,
		PropertyType:  req.PropertyType,
		Address:       req.Address,
		Amenities:     req.Amenities,
		PricePerNight: req.PricePerNight,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
	}
}

func (h *ListingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	listing, err := h.svc.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (h *ListingHandlers) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Get(r.Context(), pathVar(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := listingFilter(w, r)
	if !ok {
		return
	}
	h.writeList(w, filter)(h.svc.List(r.Context(), filter))
}

func (h *ListingHandlers) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	filter, ok := listingFilter(w, r)
	if !ok {
		return
	}
	h.writeList(w, filter)(h.svc.Mine(r.Context(), actor, filter))
}

func (h *ListingHandlers) writeList(w http.ResponseWriter, filter domain.ListingFilter) func([]domain.Listing, error) {
	return func(listings []domain.Listing, err error) {
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[listingResponse]{
			Results: toListingResponses(listings),
			Limit:   filter.Page.Limit,
			Offset:  filter.Page.Offset,
		})
	}
}

func listingFilter(w http.ResponseWriter, r *http.Request) (domain.ListingFilter, bool) {
	q := newQueryReader(r)
	filter := domain.ListingFilter{
		PropertyType:  q.str("property_type"),
		Bedrooms:      q.integer("bedrooms"),
		Bathrooms:     q.integer("bathrooms"),
		AvailableFrom: q.date("start_date"),
		AvailableTo:   q.date("end_date"),
		Search:        q.str("q"),
		OrderBy:       q.str("ordering"),
		Page:          q.page(),
	}
	if q.err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, q.err.Error())
		return domain.ListingFilter{}, false
	}
	for key, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		v := q.str(key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, key+" must be a non-negative number")
			return domain.ListingFilter{}, false
		}
		*dst = &d
	}
	if filter.OrderBy != "" {
		if _, ok := domain.ListingOrderings[filter.OrderBy]; !ok {
			writeError(w, http.StatusBadRequest, codeInvalidQuery, "unsupported ordering")
			return domain.ListingFilter{}, false
		}
	}
	return filter, true
}

func (h *ListingHandlers) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	var req listingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	listing, err := h.svc.Update(r.Context(), actor, pathVar(r, "id"), req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor, pathVar(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
