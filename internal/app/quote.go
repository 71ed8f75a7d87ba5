package app

import (
	"math"
	"time"

	"sunset_storefront/internal/domain"
)

const dayMillis = 86_400_000

// Nights bills a stay as whole nights: ceil of the date difference with a
// floor of one, so a same-day checkin/checkout is one full night rather than
// a free stay.
func Nights(checkIn, checkOut time.Time) int {
	ms := checkOut.Sub(checkIn).Milliseconds()
	n := int(math.Ceil(float64(ms) / float64(dayMillis)))
	if n < 1 {
		n = 1
	}
	return n
}

// Quote is pure: no I/O, recomputed on every request, never cached. The child
// rate is exactly half the adult rate; rounding happens only at display time
// so it cannot compound across nights and counts.
func Quote(pricePerNight float64, adultCount, childCount int, checkIn, checkOut time.Time) domain.PriceQuote {
	nights := Nights(checkIn, checkOut)
	adultCost := pricePerNight * float64(adultCount) * float64(nights)
	childCost := pricePerNight / 2 * float64(childCount) * float64(nights)
	return domain.PriceQuote{
		Nights:    nights,
		AdultCost: adultCost,
		ChildCost: childCost,
		Total:     adultCost + childCost,
	}
}
