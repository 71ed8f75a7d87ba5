package domain

import (
	"context"
	"net/url"
	"time"
)

// HotelAPI is the upstream hotel/booking REST API. The session cookie of the
// browsing user is forwarded on every call; auth itself is the upstream's
// business.
type HotelAPI interface {
	SearchHotels(ctx context.Context, cookie string, query url.Values) (SearchPage, error)
	GetHotel(ctx context.Context, id string) (HotelSummary, error)
	GetHotelForBooking(ctx context.Context, cookie, id string) (HotelSummary, error)

	CreatePaymentIntent(ctx context.Context, cookie, hotelID string, nights, adultCount, childCount int) (PaymentIntent, error)
	CreateBooking(ctx context.Context, cookie string, b BookingRecord) error
	SubmitCancellationRequest(ctx context.Context, cookie, bookingID string) error

	CurrentUser(ctx context.Context, cookie string) (GuestProfile, error)
	ValidateSession(ctx context.Context, cookie string) (Session, error)
}

// PaymentProcessor is the opaque capability exposed by the processor SDK. The
// gateway never talks to the processor's endpoints except through this port.
type PaymentProcessor interface {
	RetrieveIntentStatus(ctx context.Context, clientSecret string) (IntentStatus, error)
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID, returnURL string) (ConfirmResult, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
