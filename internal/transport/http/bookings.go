package http

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/domain"
)

// BookingAPI is the slice of the booking service the handlers need.
type BookingAPI interface {
	Create(ctx context.Context, actor domain.Actor, in app.CreateBookingInput) (domain.Booking, error)
	Get(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error)
	List(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error)
	Mine(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error)
	Host(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error)
	ForListing(ctx context.Context, actor domain.Actor, listingID string, filter domain.BookingFilter) ([]domain.Booking, error)
	Cancel(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error)
	Reschedule(ctx context.Context, actor domain.Actor, bookingID string, in app.RescheduleInput) (domain.Booking, error)
	Confirm(ctx context.Context, actor domain.Actor, bookingID string) (domain.Booking, error)
}

type BookingHandlers struct {
	svc    BookingAPI
	logger *log.Logger
}

func NewBookingHandlers(svc BookingAPI, logger *log.Logger) *BookingHandlers {
	return &BookingHandlers{svc: svc, logger: logger}
}

type stayRequest struct {
	ListingID string `json:"listing_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// dates parses the stay window; it writes the 400 itself on failure.
func (req stayRequest) dates(w http.ResponseWriter) (app.RescheduleInput, bool) {
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "start_date and end_date are required")
		return app.RescheduleInput{}, false
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "start_date must be a YYYY-MM-DD date")
		return app.RescheduleInput{}, false
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidDate, "end_date must be a YYYY-MM-DD date")
		return app.RescheduleInput{}, false
	}
	return app.RescheduleInput{StartDate: start, EndDate: end}, true
}

// Create books a stay. The listing comes from the path when the route has
// one, otherwise from the body.
func (h *BookingHandlers) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	var req stayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := pathVar(r, "id"); id != "" {
		req.ListingID = id
	}
	if strings.TrimSpace(req.ListingID) == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "listing_id is required")
		return
	}
	stay, ok := req.dates(w)
	if !ok {
		return
	}

	booking, err := h.svc.Create(r.Context(), actor, app.CreateBookingInput{
		ListingID: req.ListingID,
		StartDate: stay.StartDate,
		EndDate:   stay.EndDate,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandlers) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	booking, err := h.svc.Get(r.Context(), actor, pathVar(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandlers) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.List)
}

func (h *BookingHandlers) Mine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.Mine)
}

func (h *BookingHandlers) Host(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.Host)
}

func (h *BookingHandlers) ForListing(w http.ResponseWriter, r *http.Request) {
	listingID := pathVar(r, "id")
	h.list(w, r, func(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error) {
		return h.svc.ForListing(ctx, actor, listingID, f)
	})
}

type bookingLister func(ctx context.Context, actor domain.Actor, f domain.BookingFilter) ([]domain.Booking, error)

func (h *BookingHandlers) list(w http.ResponseWriter, r *http.Request, fn bookingLister) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	q := newQueryReader(r)
	filter := domain.BookingFilter{
		From:         q.date("start_date"),
		To:           q.date("end_date"),
		ListingTitle: q.str("listing_title"),
		Page:         q.page(),
	}
	if q.err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, q.err.Error())
		return
	}

	bookings, err := fn(r.Context(), actor, filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[bookingResponse]{
		Results: toBookingResponses(bookings),
		Limit:   filter.Page.Limit,
		Offset:  filter.Page.Offset,
	})
}

func (h *BookingHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *BookingHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Confirm)
}

func (h *BookingHandlers) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, domain.Actor, string) (domain.Booking, error)) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	booking, err := fn(r.Context(), actor, pathVar(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandlers) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := requestActor(w, r)
	if !ok {
		return
	}
	var req stayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	stay, ok := req.dates(w)
	if !ok {
		return
	}

	booking, err := h.svc.Reschedule(r.Context(), actor, pathVar(r, "id"), stay)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}
