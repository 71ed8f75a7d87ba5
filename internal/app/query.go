package app

import (
	"net/url"
	"sort"
	"strconv"
	"time"

	"sunset_storefront/internal/domain"
)

// CanonicalQuery flattens criteria + filters into the GET representation the
// upstream search endpoint expects. Destination, dates, guest counts and page
// are always present (empty destination means "no destination filter");
// rating/type/facility filters are repeated keys, omitted entirely when the
// set is empty; sortOption is present only when non-default.
func CanonicalQuery(c domain.SearchCriteria, f domain.FilterState) url.Values {
	v := url.Values{}
	v.Set("destination", c.Destination)
	v.Set("checkIn", c.CheckIn.UTC().Format(time.RFC3339))
	v.Set("checkOut", c.CheckOut.UTC().Format(time.RFC3339))
	v.Set("adultCount", strconv.Itoa(c.AdultCount))
	v.Set("childrenCount", strconv.Itoa(c.ChildrenCount))

	page := f.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))

	setAll(v, "rating", f.Ratings)
	setAll(v, "type", f.Types)
	setAll(v, "facilities", f.Facilities)

	if f.SortOption != domain.SortNone {
		v.Set("sortOption", string(f.SortOption))
	}
	return v
}

// CanonicalKey is the normalized encoding used as both the request query and
// the cache/de-duplication key. url.Values.Encode sorts by key, and setAll
// sorts multi-values, so field-for-field-equal inputs encode byte-equal
// regardless of construction order.
func CanonicalKey(c domain.SearchCriteria, f domain.FilterState) string {
	return CanonicalQuery(c, f).Encode()
}

// parseKey recovers the url.Values form of a canonical key.
func parseKey(key string) (url.Values, error) {
	return url.ParseQuery(key)
}

// setAll stores a sorted, de-duplicated copy under a repeated key.
func setAll(v url.Values, key string, vals []string) {
	if len(vals) == 0 {
		return
	}
	cp := make([]string, 0, len(vals))
	seen := make(map[string]struct{}, len(vals))
	for _, s := range vals {
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		cp = append(cp, s)
	}
	if len(cp) == 0 {
		return
	}
	sort.Strings(cp)
	v[key] = cp
}
