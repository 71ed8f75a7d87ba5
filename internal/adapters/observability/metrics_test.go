package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sunset_storefront/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so counters are non-zero
	observability.ObserveHTTP("/api/hotels/search", "GET", 200, 12*time.Millisecond)
	observability.ObserveBooking("completed")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	if !strings.Contains(out, "storefront_http_requests_total") {
		t.Fatalf("expected storefront_http_requests_total in output")
	}
	if !strings.Contains(out, "storefront_booking_outcomes_total") {
		t.Fatalf("expected storefront_booking_outcomes_total in output")
	}
}
