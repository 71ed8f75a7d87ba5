package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"sunset_storefront/internal/adapters/upstream"
	"sunset_storefront/internal/domain"
)

func newClient(t *testing.T, base string) *upstream.Client {
	t.Helper()
	cl, err := upstream.New(base, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_SearchHotels_ParsesTypedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["rating"]; len(got) != 2 {
			t.Errorf("expected repeated rating keys, got %v", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"_id": "h1", "name": "Sunset View", "city": "Paris", "country": "France",
				"type": "Boutique", "starRating": 5, "pricePerNight": 120.0,
			}},
			"pagination": map[string]int{"page": 1, "pages": 3, "total": 15},
		})
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := url.Values{}
	q["rating"] = []string{"4", "5"}
	page, err := cl.SearchHotels(ctx, "tok", q)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "h1" || page.Data[0].Rating != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Pagination.TotalHotels != 15 {
		t.Fatalf("pagination not carried through: %+v", page.Pagination)
	}
}

func TestClient_UnwrapsUpstreamMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "checkOut must be after checkIn"})
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	_, err := cl.GetHotel(context.Background(), "h1")

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusBadRequest || re.Message != "checkOut must be after checkIn" {
		t.Fatalf("unexpected remote error: %+v", re)
	}
}

func TestClient_GenericMessageOnUnparseableBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>nope</html>"))
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	_, err := cl.GetHotel(context.Background(), "h1")

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Message != "something went wrong, please try again" {
		t.Fatalf("expected generic fallback message, got %q", re.Message)
	}
}

// No automatic retry at this layer: a 500 is one request, one error.
func TestClient_DoesNotRetry(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	if _, err := cl.GetHotel(context.Background(), "h1"); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly 1 request, got %d", n)
	}
}

func TestClient_ForwardsSessionCookie(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("auth_token")
		if err != nil || c.Value != "tok-123" {
			t.Errorf("auth cookie not forwarded: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
		})
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	u, err := cl.CurrentUser(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

// parse-don't-trust: a structurally broken payload fails closed.
func TestClient_RejectsMalformedHotel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "No ID Hotel", "starRating": 9})
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	_, err := cl.GetHotel(context.Background(), "h1")

	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError on shape mismatch, got %v", err)
	}
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if body["numberOfNights"] != 3 || body["adultCount"] != 2 {
			t.Errorf("unexpected intent request: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"clientSecret": "cs_1", "paymentIntentId": "pi_1", "totalCost": 720.0,
		})
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	pi, err := cl.CreatePaymentIntent(context.Background(), "tok", "h1", 3, 2, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pi.PaymentIntentID != "pi_1" || pi.BookingTotalCost != 720 {
		t.Fatalf("unexpected intent: %+v", pi)
	}
}
