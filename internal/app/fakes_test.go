package app_test

import (
	"context"
	"net/url"
	"sync"
	"time"

	"sunset_storefront/internal/domain"
)

// ---- fakes shared by the app tests ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.SearchCriteria:
		*d = v.(domain.SearchCriteria)
	case *domain.SearchPage:
		*d = v.(domain.SearchPage)
	case *domain.HotelSummary:
		*d = v.(domain.HotelSummary)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeAPI struct {
	mu sync.Mutex

	searchFn    func(q url.Values) (domain.SearchPage, error)
	searchCalls int

	hotel domain.HotelSummary

	intent      domain.PaymentIntent
	intentErr   error
	intentCalls int

	bookingErr   error
	bookingCalls int
	bookings     []domain.BookingRecord
}

func (f *fakeAPI) SearchHotels(ctx context.Context, cookie string, q url.Values) (domain.SearchPage, error) {
	f.mu.Lock()
	f.searchCalls++
	fn := f.searchFn
	f.mu.Unlock()
	if fn != nil {
		return fn(q)
	}
	return domain.SearchPage{}, nil
}

func (f *fakeAPI) SearchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeAPI) GetHotel(ctx context.Context, id string) (domain.HotelSummary, error) {
	return f.hotel, nil
}

func (f *fakeAPI) GetHotelForBooking(ctx context.Context, cookie, id string) (domain.HotelSummary, error) {
	return f.hotel, nil
}

func (f *fakeAPI) CreatePaymentIntent(ctx context.Context, cookie, hotelID string, nights, adultCount, childCount int) (domain.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentCalls++
	if f.intentErr != nil {
		return domain.PaymentIntent{}, f.intentErr
	}
	return f.intent, nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, cookie string, b domain.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingCalls++
	if f.bookingErr != nil {
		return f.bookingErr
	}
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeAPI) BookingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookingCalls
}

func (f *fakeAPI) SubmitCancellationRequest(ctx context.Context, cookie, bookingID string) error {
	return nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context, cookie string) (domain.GuestProfile, error) {
	return domain.GuestProfile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, nil
}

func (f *fakeAPI) ValidateSession(ctx context.Context, cookie string) (domain.Session, error) {
	return domain.Session{UserID: "u1"}, nil
}

type fakeProcessor struct {
	mu sync.Mutex

	confirmFn    func() (domain.ConfirmResult, error)
	confirmCalls int
}

func (p *fakeProcessor) RetrieveIntentStatus(ctx context.Context, clientSecret string) (domain.IntentStatus, error) {
	return domain.IntentStatus{Status: "requires_payment_method"}, nil
}

func (p *fakeProcessor) ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID, returnURL string) (domain.ConfirmResult, error) {
	p.mu.Lock()
	p.confirmCalls++
	fn := p.confirmFn
	p.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return domain.ConfirmResult{Status: "succeeded"}, nil
}

func (p *fakeProcessor) ConfirmCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirmCalls
}

// ---- helpers ----

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
