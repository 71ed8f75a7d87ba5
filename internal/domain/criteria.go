package domain

import (
	"sort"
	"time"
)

// SearchCriteria is the destination/date/guest tuple shared by the search
// screen and the per-hotel booking form. It lives in the session store, not in
// any database.
type SearchCriteria struct {
	Destination   string    `json:"destination"`
	CheckIn       time.Time `json:"checkIn"`
	CheckOut      time.Time `json:"checkOut"`
	AdultCount    int       `json:"adultCount"`
	ChildrenCount int       `json:"childrenCount"`
}

// DefaultCriteria mirrors a fresh session: today's date twice, one adult.
func DefaultCriteria(now time.Time) SearchCriteria {
	day := now.Truncate(24 * time.Hour)
	return SearchCriteria{CheckIn: day, CheckOut: day, AdultCount: 1}
}

// CoerceDates enforces date coherence: whenever checkIn ends up on or after
// checkOut, checkOut is advanced to exactly one day after checkIn.
func CoerceDates(checkIn, checkOut time.Time) (time.Time, time.Time) {
	if !checkIn.Before(checkOut) {
		return checkIn, checkIn.Add(24 * time.Hour)
	}
	return checkIn, checkOut
}

// Coerced returns a copy with the date coherence rule applied.
func (c SearchCriteria) Coerced() SearchCriteria {
	c.CheckIn, c.CheckOut = CoerceDates(c.CheckIn, c.CheckOut)
	return c
}

type SortOption string

const (
	SortNone            SortOption = ""
	SortRatingHighToLow SortOption = "ratingHighToLow"
	SortPriceLowToHigh  SortOption = "priceLowToHigh"
	SortPriceHighToLow  SortOption = "priceHighToLow"
)

// FilterState is the results screen's selection. Rating/type/facility sets are
// OR within a field and AND across fields; that contract belongs to the
// upstream search endpoint, the gateway only encodes it.
type FilterState struct {
	Ratings    []string   `json:"ratings,omitempty"`
	Types      []string   `json:"types,omitempty"`
	Facilities []string   `json:"facilities,omitempty"`
	SortOption SortOption `json:"sortOption,omitempty"`
	Page       int        `json:"page"`
}

func NewFilterState() FilterState { return FilterState{Page: 1} }

// Every mutation except an explicit page change snaps back to page 1.

func (f FilterState) ToggleRating(r string) FilterState {
	f.Ratings = toggle(f.Ratings, r)
	f.Page = 1
	return f
}

func (f FilterState) ToggleType(t string) FilterState {
	f.Types = toggle(f.Types, t)
	f.Page = 1
	return f
}

func (f FilterState) ToggleFacility(fa string) FilterState {
	f.Facilities = toggle(f.Facilities, fa)
	f.Page = 1
	return f
}

func (f FilterState) WithSort(s SortOption) FilterState {
	f.SortOption = s
	f.Page = 1
	return f
}

// WithPage preserves every other field.
func (f FilterState) WithPage(n int) FilterState {
	if n < 1 {
		n = 1
	}
	f.Page = n
	return f
}

// Cleared drops ratings/types/facilities and the sort order; the criteria
// (destination/dates/guests) are not touched by a filter clear.
func (f FilterState) Cleared() FilterState {
	return FilterState{Page: 1}
}

func toggle(set []string, v string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == v {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
