package http

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps wires services into the HTTP API.
type RouterDeps struct {
	Payments      PaymentAPI
	Bookings      BookingAPI
	Listings      ListingAPI
	Auth          *Authenticator
	WebhookSecret string
	DB            Pinger
	CORSOrigins   []string
	Logger        *log.Logger
}

// NewRouter builds the full handler chain: routes, metrics, CORS and request logging.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	auth := func(h http.HandlerFunc) http.Handler {
		return d.Auth.Require(h)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = MethodNotAllowedHandler()
	r.Use(Metrics)

	r.Handle("/health", HealthHandler(d.DB)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.Handle("/payments", auth(HandleInitiatePayment(d.Payments, logger))).Methods(http.MethodPost)
	api.Handle("/payments/verify", auth(HandleVerifyPayment(d.Payments, logger))).Methods(http.MethodPost)
	api.Handle("/payments/webhook", HandlePaymentWebhook(d.Payments, d.WebhookSecret, logger)).Methods(http.MethodPost)

	listings := NewListingHandlers(d.Listings, logger)
	bookings := NewBookingHandlers(d.Bookings, logger)

	api.HandleFunc("/listings", listings.List).Methods(http.MethodGet)
	api.Handle("/listings", auth(listings.Create)).Methods(http.MethodPost)
	api.Handle("/listings/mine", auth(listings.Mine)).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", listings.Get).Methods(http.MethodGet)
	api.Handle("/listings/{id}", auth(listings.Update)).Methods(http.MethodPut)
	api.Handle("/listings/{id}", auth(listings.Delete)).Methods(http.MethodDelete)
	api.Handle("/listings/{id}/bookings", auth(bookings.ForListing)).Methods(http.MethodGet)
	api.Handle("/listings/{id}/bookings", auth(bookings.Create)).Methods(http.MethodPost)

	api.Handle("/bookings", auth(bookings.List)).Methods(http.MethodGet)
	api.Handle("/bookings", auth(bookings.Create)).Methods(http.MethodPost)
	api.Handle("/bookings/mine", auth(bookings.Mine)).Methods(http.MethodGet)
	api.Handle("/bookings/host", auth(bookings.Host)).Methods(http.MethodGet)
	api.Handle("/bookings/{id}", auth(bookings.Get)).Methods(http.MethodGet)
	api.Handle("/bookings/{id}/payment", auth(HandleBookingPayment(d.Payments, logger))).Methods(http.MethodGet)
	api.Handle("/bookings/{id}/cancel", auth(bookings.Cancel)).Methods(http.MethodPost)
	api.Handle("/bookings/{id}/reschedule", auth(bookings.Reschedule)).Methods(http.MethodPost)
	api.Handle("/bookings/{id}/confirm", auth(bookings.Confirm)).Methods(http.MethodPost)

	return RequestLogger(CORS(d.CORSOrigins, r), logger)
}
