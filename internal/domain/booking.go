package domain

import "time"

// GuestProfile is the signed-in viewer as reported by the upstream
// current-user endpoint.
type GuestProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// PaymentIntent is a processor-issued pending-charge handle. One intent maps
// to exactly one checkout attempt; a changed price means a fresh intent.
type PaymentIntent struct {
	ClientSecret     string  `json:"clientSecret"`
	PaymentIntentID  string  `json:"paymentIntentId"`
	BookingTotalCost float64 `json:"totalCost"`
}

// BookingRecord is persisted by the upstream only after the processor has
// confirmed the matching PaymentIntent.
type BookingRecord struct {
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	AdultCount       int       `json:"adultCount"`
	ChildrenCount    int       `json:"childCount"`
	CheckIn          time.Time `json:"checkIn"`
	CheckOut         time.Time `json:"checkOut"`
	HotelID          string    `json:"hotelId"`
	PaymentIntentID  string    `json:"paymentIntentId"`
	BookingTotalCost float64   `json:"totalCost"`
}

// PriceQuote is derived on every request from criteria and the hotel's adult
// rate; it is never cached.
type PriceQuote struct {
	Nights    int     `json:"nights"`
	AdultCost float64 `json:"adultCost"`
	ChildCost float64 `json:"childCost"`
	Total     float64 `json:"total"`
}

// IntentStatus is the processor's view of a pending charge.
type IntentStatus struct {
	Status string `json:"status"` // requires_payment_method | processing | succeeded | canceled
}

// ConfirmResult is the processor's answer to a confirmation call.
type ConfirmResult struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"paymentIntentId"`
}
