package http

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/domain"
)

const testJWTSecret = "test-jwt-secret"
const testWebhookSecret = "test-webhook-secret"

type fakePayments struct {
	initiate func(actor domain.Actor, bookingID string) (app.InitiateResult, error)
	verify   func(actor domain.Actor, in app.VerifyInput) (app.VerifyResult, error)
	webhook  func(ev app.WebhookEvent) (app.ReconcileResult, error)
	get      func(actor domain.Actor, bookingID string) (domain.Payment, error)

	lastWebhook app.WebhookEvent
}

func (f *fakePayments) Initiate(_ context.Context, actor domain.Actor, bookingID string) (app.InitiateResult, error) {
	return f.initiate(actor, bookingID)
}

func (f *fakePayments) VerifyForActor(_ context.Context, actor domain.Actor, in app.VerifyInput) (app.VerifyResult, error) {
	return f.verify(actor, in)
}

func (f *fakePayments) HandleWebhook(_ context.Context, ev app.WebhookEvent) (app.ReconcileResult, error) {
	f.lastWebhook = ev
	return f.webhook(ev)
}

func (f *fakePayments) GetPayment(_ context.Context, actor domain.Actor, bookingID string) (domain.Payment, error) {
	return f.get(actor, bookingID)
}

type fakeBookings struct {
	booking domain.Booking
	err     error

	lastActor  domain.Actor
	lastID     string
	lastCreate app.CreateBookingInput
	lastFilter domain.BookingFilter
	lastCall   string
}

func (f *fakeBookings) record(call string, actor domain.Actor, id string) {
	f.lastCall = call
	f.lastActor = actor
	f.lastID = id
}

func (f *fakeBookings) Create(_ context.Context, actor domain.Actor, in app.CreateBookingInput) (domain.Booking, error) {
	f.record("create", actor, in.ListingID)
	f.lastCreate = in
	return f.booking, f.err
}

func (f *fakeBookings) Get(_ context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	f.record("get", actor, id)
	return f.booking, f.err
}

func (f *fakeBookings) List(_ context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	f.record("list", actor, "")
	f.lastFilter = filter
	return []domain.Booking{f.booking}, f.err
}

func (f *fakeBookings) Mine(_ context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	f.record("mine", actor, "")
	f.lastFilter = filter
	return []domain.Booking{f.booking}, f.err
}

func (f *fakeBookings) Host(_ context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	f.record("host", actor, "")
	f.lastFilter = filter
	return []domain.Booking{f.booking}, f.err
}

func (f *fakeBookings) ForListing(_ context.Context, actor domain.Actor, listingID string, filter domain.BookingFilter) ([]domain.Booking, error) {
	f.record("for_listing", actor, listingID)
	f.lastFilter = filter
	return []domain.Booking{f.booking}, f.err
}

func (f *fakeBookings) Cancel(_ context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	f.record("cancel", actor, id)
	return f.booking, f.err
}

func (f *fakeBookings) Reschedule(_ context.Context, actor domain.Actor, id string, in app.RescheduleInput) (domain.Booking, error) {
	f.record("reschedule", actor, id)
	f.lastCreate = app.CreateBookingInput{StartDate: in.StartDate, EndDate: in.EndDate}
	return f.booking, f.err
}

func (f *fakeBookings) Confirm(_ context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	f.record("confirm", actor, id)
	return f.booking, f.err
}

type fakeListings struct {
	listing domain.Listing
	err     error

	lastCall   string
	lastID     string
	lastInput  app.ListingInput
	lastFilter domain.ListingFilter
}

func (f *fakeListings) Create(_ context.Context, _ domain.Actor, in app.ListingInput) (domain.Listing, error) {
	f.lastCall = "create"
	f.lastInput = in
	return f.listing, f.err
}

func (f *fakeListings) Get(_ context.Context, id string) (domain.Listing, error) {
	f.lastCall = "get"
	f.lastID = id
	return f.listing, f.err
}

func (f *fakeListings) List(_ context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	f.lastCall = "list"
	f.lastFilter = filter
	return []domain.Listing{f.listing}, f.err
}

func (f *fakeListings) Mine(_ context.Context, actor domain.Actor, filter domain.ListingFilter) ([]domain.Listing, error) {
	f.lastCall = "mine"
	filter.HostID = actor.UserID
	f.lastFilter = filter
	return []domain.Listing{f.listing}, f.err
}

func (f *fakeListings) Update(_ context.Context, _ domain.Actor, id string, in app.ListingInput) (domain.Listing, error) {
	f.lastCall = "update"
	f.lastID = id
	f.lastInput = in
	return f.listing, f.err
}

func (f *fakeListings) Delete(_ context.Context, _ domain.Actor, id string) error {
	f.lastCall = "delete"
	f.lastID = id
	return f.err
}

type testServer struct {
	handler  http.Handler
	auth     *Authenticator
	payments *fakePayments
	bookings *fakeBookings
	listings *fakeListings
	logs     *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logs := &bytes.Buffer{}
	s := &testServer{
		auth:     NewAuthenticator(testJWTSecret),
		payments: &fakePayments{},
		bookings: &fakeBookings{},
		listings: &fakeListings{},
		logs:     logs,
	}
	s.handler = NewRouter(RouterDeps{
		Payments:      s.payments,
		Bookings:      s.bookings,
		Listings:      s.listings,
		Auth:          s.auth,
		WebhookSecret: testWebhookSecret,
		CORSOrigins:   []string{"http://localhost:5173"},
		Logger:        log.New(logs, "", 0),
	})
	return s
}

var (
	actorGuest = domain.Actor{UserID: "user-1", Email: "abebe@example.com", FirstName: "Abebe", LastName: "Kebede", Role: domain.RoleGuest}
	actorHost  = domain.Actor{UserID: "host-1", Email: "host@example.com", Role: domain.RoleHost}
	actorAdmin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

func (s *testServer) token(t *testing.T, actor domain.Actor) string {
	t.Helper()
	tok, err := s.auth.Issue(actor, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do sends a request; a zero actor sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path string, actor domain.Actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor.UserID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, actor))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}
