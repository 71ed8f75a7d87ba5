package domain

// HotelSummary is an immutable snapshot as returned by the upstream API; the
// gateway never mutates it.
type HotelSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Type          string   `json:"type"`
	Rating        int      `json:"starRating"`
	PricePerNight float64  `json:"pricePerNight"`
	Description   string   `json:"description"`
	Facilities    []string `json:"facilities"`
	Images        []string `json:"imageUrls"`
}

// Pagination is the upstream's pagination block. Its numbers are
// authoritative; the gateway never recomputes them.
type Pagination struct {
	Page        int `json:"page"`
	Pages       int `json:"pages"`
	TotalHotels int `json:"total"`
}

type SearchPage struct {
	Data       []HotelSummary `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// Session is the upstream's view of the caller's cookie.
type Session struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin"`
}
