package app

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/alxtravel/travel-api/internal/gateway"
	"github.com/alxtravel/travel-api/internal/notify"
)

// fakeStore implements every repository interface in this package. WithTx
// serializes transactions the way row locks would.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	listings map[string]domain.Listing
	bookings map[string]domain.Booking
	payments map[string]domain.Payment

	createPaymentErr error
	beforeGetPayment func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: make(map[string]domain.Listing),
		bookings: make(map[string]domain.Booking),
		payments: make(map[string]domain.Payment),
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(ctx)
}

func (f *fakeStore) putListing(l domain.Listing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[l.ID] = l
}

func (f *fakeStore) putBooking(b domain.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[b.ID] = b
}

func (f *fakeStore) putPayment(p domain.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.TxRef] = p
}

func (f *fakeStore) booking(id string) domain.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id]
}

func (f *fakeStore) payment(txRef string) domain.Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[txRef]
}

func (f *fakeStore) paymentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payments)
}

func (f *fakeStore) GetListing(_ context.Context, id string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return domain.Listing{}, domain.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeStore) GetListingForUpdate(ctx context.Context, id string) (domain.Listing, error) {
	return f.GetListing(ctx, id)
}

func (f *fakeStore) CreateListing(_ context.Context, l domain.Listing) error {
	f.putListing(l)
	return nil
}

func (f *fakeStore) UpdateListing(_ context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listings[l.ID]; !ok {
		return domain.ErrListingNotFound
	}
	f.listings[l.ID] = l
	return nil
}

func (f *fakeStore) DeleteListing(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ListingID == id {
			return domain.ErrListingHasBookings
		}
	}
	delete(f.listings, id)
	return nil
}

func (f *fakeStore) ListListings(_ context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.listings {
		if filter.HostID != "" && l.HostID != filter.HostID {
			continue
		}
		if filter.PropertyType != "" && l.PropertyType != filter.PropertyType {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeStore) GetBookingForUpdate(ctx context.Context, id string) (domain.Booking, error) {
	return f.GetBooking(ctx, id)
}

func (f *fakeStore) HasConfirmedOverlap(_ context.Context, listingID, excludeID string, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ListingID != listingID || b.ID == excludeID || b.Status != domain.BookingStatusConfirmed {
			continue
		}
		if b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b domain.Booking) error {
	f.putBooking(b)
	return nil
}

func (f *fakeStore) UpdateBooking(_ context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	f.bookings[b.ID] = b
	return nil
}

func (f *fakeStore) UpdateBookingStatus(_ context.Context, id string, status domain.BookingStatus, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = now
	f.bookings[id] = b
	return nil
}

func (f *fakeStore) ListBookings(_ context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.ListingID != "" && b.ListingID != filter.ListingID {
			continue
		}
		if filter.HostID != "" && f.listings[b.ListingID].HostID != filter.HostID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetPaymentByBookingID(_ context.Context, bookingID string) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.BookingID == bookingID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetPaymentByTxRef(_ context.Context, txRef string) (domain.Payment, error) {
	if f.beforeGetPayment != nil {
		f.beforeGetPayment()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[txRef]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeStore) GetPaymentForUpdate(_ context.Context, txRef string) (domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[txRef]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p domain.Payment) error {
	if f.createPaymentErr != nil {
		return f.createPaymentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.payments {
		if existing.BookingID == p.BookingID {
			return domain.ErrAlreadyInitiated
		}
	}
	f.payments[p.TxRef] = p
	return nil
}

func (f *fakeStore) UpdatePaymentOutcome(_ context.Context, p domain.Payment) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.payments[p.TxRef]
	if !ok {
		return false, domain.ErrPaymentNotFound
	}
	if current.Status != domain.PaymentStatusPending {
		return false, nil
	}
	f.payments[p.TxRef] = p
	return true, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	checkoutURL string
	initiateErr error
	verifyErr   error
	status      string

	initiateCalls atomic.Int32
	verifyCalls   atomic.Int32
	lastInitiate  gateway.InitiateRequest
}

func (g *fakeGateway) setStatus(status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = status
}

func (g *fakeGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	g.initiateCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastInitiate = req
	if g.initiateErr != nil {
		return gateway.InitiateResult{}, g.initiateErr
	}
	raw, _ := json.Marshal(map[string]any{"status": "success", "data": map[string]string{"checkout_url": g.checkoutURL, "tx_ref": req.TxRef}})
	return gateway.InitiateResult{CheckoutURL: g.checkoutURL, TxRef: req.TxRef, Raw: raw}, nil
}

func (g *fakeGateway) Verify(_ context.Context, txRef string) (gateway.VerifyResult, error) {
	g.verifyCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return gateway.VerifyResult{}, g.verifyErr
	}
	raw, _ := json.Marshal(map[string]any{"data": map[string]string{"status": g.status, "tx_ref": txRef}})
	return gateway.VerifyResult{Status: g.status, TxRef: txRef, Raw: raw}, nil
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []notify.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job notify.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
