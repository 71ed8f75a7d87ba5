package app

import (
	"context"
	"fmt"
	"time"

	"sunset_storefront/internal/domain"
)

// Catalog serves hotel detail reads through the cache. Hotel snapshots are
// immutable upstream, so cache-aside with a short TTL is enough.
type Catalog struct {
	api   domain.HotelAPI
	cache domain.Cache
	ttl   time.Duration
}

func NewCatalog(api domain.HotelAPI, cache domain.Cache, ttl time.Duration) *Catalog {
	return &Catalog{api: api, cache: cache, ttl: ttl}
}

func (c *Catalog) GetHotel(ctx context.Context, id string) (domain.HotelSummary, error) {
	key := fmt.Sprintf("hotel:%s", id)
	var h domain.HotelSummary
	if ok, _ := c.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := c.api.GetHotel(ctx, id)
	if err != nil {
		return domain.HotelSummary{}, err
	}
	_ = c.cache.Set(ctx, key, h, c.ttl)
	return h, nil
}

// GetHotelForBooking is never cached: the checkout page must see the
// upstream's current price.
func (c *Catalog) GetHotelForBooking(ctx context.Context, cookie, id string) (domain.HotelSummary, error) {
	return c.api.GetHotelForBooking(ctx, cookie, id)
}
