// internal/adapters/upstream/client.go
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sunset_storefront/internal/adapters/observability"
	"sunset_storefront/internal/domain"
)

const sessionCookieName = "auth_token"

// Client talks to the upstream hotel/booking REST API. Every request carries
// the browsing user's session cookie; every non-2xx response is unwrapped
// into a RemoteError carrying the body's message field. There is no automatic
// retry at this layer — retries, where they exist at all, are a caller
// decision.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- HotelAPI ----

func (c *Client) SearchHotels(ctx context.Context, cookie string, query url.Values) (domain.SearchPage, error) {
	var raw searchResponse
	u := fmt.Sprintf("%s/api/hotels/search?%s", c.base, query.Encode())
	if err := c.do(ctx, http.MethodGet, u, cookie, nil, &raw); err != nil {
		return domain.SearchPage{}, err
	}
	return raw.toDomain()
}

func (c *Client) GetHotel(ctx context.Context, id string) (domain.HotelSummary, error) {
	var raw hotelPayload
	u := fmt.Sprintf("%s/api/hotels/%s", c.base, url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, u, "", nil, &raw); err != nil {
		return domain.HotelSummary{}, err
	}
	return raw.toDomain()
}

// GetHotelForBooking is the authenticated detail lookup used on the checkout
// page; the upstream returns the same hotel shape but scopes it to the
// signed-in viewer.
func (c *Client) GetHotelForBooking(ctx context.Context, cookie, id string) (domain.HotelSummary, error) {
	var raw hotelPayload
	u := fmt.Sprintf("%s/api/hotels/%s/booking", c.base, url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, u, cookie, nil, &raw); err != nil {
		return domain.HotelSummary{}, err
	}
	return raw.toDomain()
}

func (c *Client) CreatePaymentIntent(ctx context.Context, cookie, hotelID string, nights, adultCount, childCount int) (domain.PaymentIntent, error) {
	body := map[string]int{
		"numberOfNights": nights,
		"adultCount":     adultCount,
		"childCount":     childCount,
	}
	var raw intentPayload
	u := fmt.Sprintf("%s/api/hotels/%s/bookings/payment-intent", c.base, url.PathEscape(hotelID))
	if err := c.do(ctx, http.MethodPost, u, cookie, body, &raw); err != nil {
		return domain.PaymentIntent{}, err
	}
	if raw.ClientSecret == "" || raw.PaymentIntentID == "" {
		return domain.PaymentIntent{}, &domain.RemoteError{
			Status:  http.StatusBadGateway,
			Message: "payment intent response missing clientSecret or paymentIntentId",
		}
	}
	return domain.PaymentIntent(raw), nil
}

func (c *Client) CreateBooking(ctx context.Context, cookie string, b domain.BookingRecord) error {
	u := fmt.Sprintf("%s/api/hotels/%s/bookings", c.base, url.PathEscape(b.HotelID))
	return c.do(ctx, http.MethodPost, u, cookie, b, nil)
}

func (c *Client) SubmitCancellationRequest(ctx context.Context, cookie, bookingID string) error {
	u := fmt.Sprintf("%s/api/my-bookings/%s/cancellation-request", c.base, url.PathEscape(bookingID))
	return c.do(ctx, http.MethodPost, u, cookie, nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context, cookie string) (domain.GuestProfile, error) {
	var out domain.GuestProfile
	if err := c.do(ctx, http.MethodGet, c.base+"/api/users/me", cookie, nil, &out); err != nil {
		return domain.GuestProfile{}, err
	}
	if out.Email == "" {
		return domain.GuestProfile{}, &domain.RemoteError{
			Status:  http.StatusBadGateway,
			Message: "current-user response missing email",
		}
	}
	return out, nil
}

func (c *Client) ValidateSession(ctx context.Context, cookie string) (domain.Session, error) {
	var out domain.Session
	if err := c.do(ctx, http.MethodGet, c.base+"/api/auth/validate-token", cookie, nil, &out); err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

// ---- wire payloads (parse-don't-trust: typed at the boundary, validated
// before they become domain values) ----

type hotelPayload struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Type          string   `json:"type"`
	StarRating    int      `json:"starRating"`
	PricePerNight float64  `json:"pricePerNight"`
	Description   string   `json:"description"`
	Facilities    []string `json:"facilities"`
	ImageURLs     []string `json:"imageURL"`
}

func (h hotelPayload) toDomain() (domain.HotelSummary, error) {
	if h.ID == "" || h.Name == "" {
		return domain.HotelSummary{}, &domain.RemoteError{
			Status:  http.StatusBadGateway,
			Message: "hotel payload missing id or name",
		}
	}
	if h.StarRating < 1 || h.StarRating > 5 {
		return domain.HotelSummary{}, &domain.RemoteError{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("hotel %s has out-of-range rating %d", h.ID, h.StarRating),
		}
	}
	return domain.HotelSummary{
		ID:            h.ID,
		Name:          h.Name,
		City:          h.City,
		Country:       h.Country,
		Type:          h.Type,
		Rating:        h.StarRating,
		PricePerNight: h.PricePerNight,
		Description:   h.Description,
		Facilities:    h.Facilities,
		Images:        h.ImageURLs,
	}, nil
}

type searchResponse struct {
	Data       []hotelPayload    `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

func (r searchResponse) toDomain() (domain.SearchPage, error) {
	out := domain.SearchPage{
		Data:       make([]domain.HotelSummary, 0, len(r.Data)),
		Pagination: r.Pagination,
	}
	for _, h := range r.Data {
		hs, err := h.toDomain()
		if err != nil {
			return domain.SearchPage{}, err
		}
		out.Data = append(out.Data, hs)
	}
	return out, nil
}

type intentPayload struct {
	ClientSecret     string  `json:"clientSecret"`
	PaymentIntentID  string  `json:"paymentIntentId"`
	BookingTotalCost float64 `json:"totalCost"`
}

// ---- internals ----

const genericRemoteMessage = "something went wrong, please try again"

// do issues one request with client-side rate limiting and decodes the JSON
// response into out (when non-nil). Non-2xx responses become RemoteError with
// the body's message field, falling back to a fixed generic message when the
// body is not parseable JSON or lacks one.
func (c *Client) do(ctx context.Context, method, u, cookie string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sunset-storefront/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.ObserveExternal("upstream", endpointLabel(method, u), 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("upstream", endpointLabel(method, u), resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.RemoteError{Status: http.StatusBadGateway, Message: genericRemoteMessage}
	}
	return nil
}

func remoteError(resp *http.Response) error {
	msg := genericRemoteMessage
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}
	return &domain.RemoteError{Status: resp.StatusCode, Message: msg}
}

// endpointLabel keeps metric cardinality bounded: method plus path with IDs
// and query stripped down to the first three segments.
func endpointLabel(method, u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return method
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return method + " /" + strings.Join(parts, "/")
}
