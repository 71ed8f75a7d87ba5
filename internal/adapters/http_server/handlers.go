// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sunset_storefront/internal/adapters/observability"
	"sunset_storefront/internal/app"
	"sunset_storefront/internal/domain"
)

func observeOutcome(outcome string) { observability.ObserveBooking(outcome) }

type Handlers struct {
	Store    *app.CriteriaStore
	Engine   *app.SearchEngine
	Catalog  *app.Catalog
	Bookings *app.Orchestrator
	Attempts *app.AttemptRegistry
	API      domain.HotelAPI
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/api/session/criteria", h.getCriteria)
	s.mux.Put("/api/session/criteria", h.putCriteria)

	s.mux.Get("/api/hotels/search", h.searchHotels)
	s.mux.Get("/api/hotels/search/view", h.searchView)
	s.mux.Get("/api/hotels/{id}", h.getHotel)
	s.mux.Get("/api/hotels/{id}/quote", h.getQuote)

	s.mux.Post("/api/hotels/{id}/booking/intent", h.createIntent)
	s.mux.Post("/api/hotels/{id}/booking", h.submitBooking)
	s.mux.Post("/api/my-bookings/{id}/cancellation-request", h.requestCancellation)

	s.mux.Get("/api/users/me", h.currentUser)
}

// ---- shared helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

type errBody struct {
	Message         string `json:"message"`
	Kind            string `json:"kind,omitempty"`
	Field           string `json:"field,omitempty"`
	RedirectTo      string `json:"redirectTo,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, body errBody) {
	writeJSON(w, status, body)
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Validation
// errors point at their field; remote errors pass the upstream message
// through.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusUnprocessableEntity, errBody{Message: ve.Reason, Kind: "validation", Field: ve.Field})
		return
	}
	var re *domain.RemoteError
	if errors.As(err, &re) {
		status := http.StatusBadGateway
		if re.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		if re.Status == http.StatusUnauthorized || re.Status == http.StatusForbidden {
			status = re.Status
		}
		writeError(w, status, errBody{Message: re.Message, Kind: "remote"})
		return
	}
	writeError(w, http.StatusBadGateway, errBody{Message: "something went wrong, please try again", Kind: "remote"})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// ---- criteria ----

type criteriaBody struct {
	Destination   string `json:"destination"`
	CheckIn       string `json:"checkIn"`
	CheckOut      string `json:"checkOut"`
	AdultCount    int    `json:"adultCount"`
	ChildrenCount int    `json:"childrenCount"`
}

func (b criteriaBody) toDomain() (domain.SearchCriteria, error) {
	in, err := parseDate(b.CheckIn)
	if err != nil {
		return domain.SearchCriteria{}, &domain.ValidationError{Field: "checkIn", Reason: "malformed date"}
	}
	out, err := parseDate(b.CheckOut)
	if err != nil {
		return domain.SearchCriteria{}, &domain.ValidationError{Field: "checkOut", Reason: "malformed date"}
	}
	return domain.SearchCriteria{
		Destination:   b.Destination,
		CheckIn:       in,
		CheckOut:      out,
		AdultCount:    b.AdultCount,
		ChildrenCount: b.ChildrenCount,
	}, nil
}

func (h *Handlers) getCriteria(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.Read(r.Context(), sessionID(r))
	if err != nil {
		log.Warn().Err(err).Msg("criteria read failed, serving defaults")
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) putCriteria(w http.ResponseWriter, r *http.Request) {
	var body criteriaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errBody{Message: "invalid JSON body"})
		return
	}
	c, err := body.toDomain()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	saved, err := h.Store.Save(r.Context(), sessionID(r), c)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// ---- search ----

// criteriaFromQuery reads destination/dates/guests from query params,
// falling back to the session store for anything the request omits.
func (h *Handlers) criteriaFromQuery(r *http.Request) (domain.SearchCriteria, error) {
	q := r.URL.Query()
	c, _ := h.Store.Read(r.Context(), sessionID(r))

	if q.Has("destination") {
		c.Destination = q.Get("destination")
	}
	if s := q.Get("checkIn"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c, &domain.ValidationError{Field: "checkIn", Reason: "malformed date"}
		}
		c.CheckIn = t
	}
	if s := q.Get("checkOut"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return c, &domain.ValidationError{Field: "checkOut", Reason: "malformed date"}
		}
		c.CheckOut = t
	}
	if s := q.Get("adultCount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c, &domain.ValidationError{Field: "adultCount", Reason: "at least one adult is required"}
		}
		c.AdultCount = n
	}
	if s := q.Get("childrenCount"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return c, &domain.ValidationError{Field: "childrenCount", Reason: "must not be negative"}
		}
		c.ChildrenCount = n
	}
	return c.Coerced(), nil
}

func filtersFromQuery(q url.Values) domain.FilterState {
	f := domain.NewFilterState()
	f.Ratings = q["rating"]
	f.Types = q["type"]
	f.Facilities = q["facilities"]
	f.SortOption = domain.SortOption(q.Get("sortOption"))
	if s := q.Get("page"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			f = f.WithPage(n)
		}
	}
	return f
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteriaFromQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	// the search bar's submit both saves and queries
	if _, err := h.Store.Save(r.Context(), sessionID(r), c); err != nil {
		log.Warn().Err(err).Msg("criteria save on search failed")
	}

	f := filtersFromQuery(r.URL.Query())
	page, err := h.Engine.Search(r.Context(), sessionID(r), authCookie(r), c, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type searchViewResponse struct {
	State   string            `json:"state"`
	Results domain.SearchPage `json:"results"`
	Reason  string            `json:"reason,omitempty"`
}

// searchView is what the results screen renders: the last applied result set,
// the lifecycle state, and a display-only reason on failure. A failed query
// leaves the previous results in place.
func (h *Handlers) searchView(w http.ResponseWriter, r *http.Request) {
	v := h.Engine.View(sessionID(r))
	writeJSON(w, http.StatusOK, searchViewResponse{
		State:   v.State.String(),
		Results: v.Results,
		Reason:  v.Reason,
	})
}

// ---- hotel detail & quote ----

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.Catalog.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotel)
}

type quoteResponse struct {
	domain.PriceQuote
	FormattedTotal string `json:"formattedTotal"`
}

func (h *Handlers) getQuote(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteriaFromQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hotel, err := h.Catalog.GetHotel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	q := app.Quote(hotel.PricePerNight, c.AdultCount, c.ChildrenCount, c.CheckIn, c.CheckOut)
	// currency rounding happens here, at display time only
	writeJSON(w, http.StatusOK, quoteResponse{
		PriceQuote:     q,
		FormattedTotal: strconv.FormatFloat(q.Total, 'f', 2, 64),
	})
}

// ---- booking flow ----

type intentRequest struct {
	criteriaBody
}

type intentResponse struct {
	AttemptID        string  `json:"attemptId"`
	ClientSecret     string  `json:"clientSecret"`
	PaymentIntentID  string  `json:"paymentIntentId"`
	BookingTotalCost float64 `json:"totalCost"`
	Nights           int     `json:"nights"`
}

// requireUser validates the forwarded auth cookie upstream. Anonymous viewers
// get their stay criteria saved (so it survives the sign-in round trip) and a
// redirect hint back to where they came from.
func (h *Handlers) requireUser(w http.ResponseWriter, r *http.Request, saveCriteria *domain.SearchCriteria) (domain.GuestProfile, bool) {
	cookie := authCookie(r)
	if cookie == "" {
		if saveCriteria != nil {
			_, _ = h.Store.Save(r.Context(), sessionID(r), *saveCriteria)
		}
		writeError(w, http.StatusUnauthorized, errBody{
			Message:    "please sign in to book",
			RedirectTo: "/sign-in?from=" + url.QueryEscape(r.Referer()),
		})
		return domain.GuestProfile{}, false
	}
	if _, err := h.API.ValidateSession(r.Context(), cookie); err != nil {
		if saveCriteria != nil {
			_, _ = h.Store.Save(r.Context(), sessionID(r), *saveCriteria)
		}
		writeError(w, http.StatusUnauthorized, errBody{
			Message:    "your session has expired, please sign in again",
			RedirectTo: "/sign-in?from=" + url.QueryEscape(r.Referer()),
		})
		return domain.GuestProfile{}, false
	}
	user, err := h.API.CurrentUser(r.Context(), cookie)
	if err != nil {
		writeDomainError(w, err)
		return domain.GuestProfile{}, false
	}
	return user, true
}

func (h *Handlers) createIntent(w http.ResponseWriter, r *http.Request) {
	var body intentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errBody{Message: "invalid JSON body"})
		return
	}
	criteria, err := body.toDomain()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	guest, ok := h.requireUser(w, r, &criteria)
	if !ok {
		return
	}

	hotel, err := h.Catalog.GetHotelForBooking(r.Context(), authCookie(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	attempt, err := h.Bookings.NewAttempt(authCookie(r), hotel, criteria, guest)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// the per-hotel form writes through the shared criteria store, so the
	// later submit compares the attempt against the same stay it came from
	if _, err := h.Store.Save(r.Context(), sessionID(r), criteria); err != nil {
		log.Warn().Err(err).Msg("criteria save on intent failed")
	}

	if err := attempt.RequestIntent(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, errBody{
			Message: "could not set up payment, please try again",
			Kind:    app.FailIntent.String(),
		})
		return
	}

	h.Attempts.Put(attempt)
	intent := attempt.Intent()
	writeJSON(w, http.StatusCreated, intentResponse{
		AttemptID:        attempt.ID,
		ClientSecret:     intent.ClientSecret,
		PaymentIntentID:  intent.PaymentIntentID,
		BookingTotalCost: intent.BookingTotalCost,
		Nights:           attempt.Quote().Nights,
	})
}

type bookingRequest struct {
	AttemptID       string `json:"attemptId"`
	PaymentMethodID string `json:"paymentMethodId"`
	ReturnURL       string `json:"returnUrl"`
}

func (h *Handlers) submitBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errBody{Message: "invalid JSON body"})
		return
	}
	if _, ok := h.requireUser(w, r, nil); !ok {
		return
	}

	attempt, ok := h.Attempts.Get(body.AttemptID)
	if !ok {
		writeError(w, http.StatusGone, errBody{Message: "checkout expired, please start again"})
		return
	}

	// a changed stay invalidates the intent; the client must start over
	if current, err := h.Store.Read(r.Context(), sessionID(r)); err == nil && attempt.Stale(current) {
		h.Attempts.Drop(attempt.ID)
		writeError(w, http.StatusConflict, errBody{Message: "your stay changed, please restart checkout"})
		return
	}

	// a declined card may be retried against the same intent with a new
	// payment method; the price has not changed, so the secret is still good
	if st := attempt.State(); st == app.AttemptFailed {
		if kind, _ := attempt.Failure(); kind == app.FailProcessor {
			attempt.RetryPayment()
		}
	}

	// a posted payment method id is the widget's completion signal
	attempt.MarkPaymentComplete(body.PaymentMethodID != "")

	err := attempt.Submit(r.Context(), body.PaymentMethodID, body.ReturnURL)
	kind, msg := attempt.Failure()
	if err != nil {
		h.writeBookingFailure(w, attempt, err, kind, msg)
		return
	}

	h.Attempts.Drop(attempt.ID)
	observeOutcome("completed")
	writeJSON(w, http.StatusCreated, map[string]string{"message": "booking confirmed"})
}

func (h *Handlers) writeBookingFailure(w http.ResponseWriter, attempt *app.Attempt, err error, kind app.FailureKind, msg string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeDomainError(w, err)
		return
	}

	// a guard rejection (wrong state, submission already in flight) is not a
	// failed attempt; tell the client what it collided with
	if kind == app.FailNone {
		writeError(w, http.StatusConflict, errBody{Message: err.Error()})
		return
	}

	observeOutcome(kind.String())
	switch kind {
	case app.FailProcessor:
		// keep the attempt alive: a fresh card can retry the same intent
		writeError(w, http.StatusPaymentRequired, errBody{Message: msg, Kind: kind.String()})
	case app.FailPartial:
		var pf *domain.PartialFailureError
		body := errBody{Message: msg, Kind: kind.String()}
		if errors.As(err, &pf) {
			body.PaymentIntentID = pf.PaymentIntentID
		}
		h.Attempts.Drop(attempt.ID)
		writeError(w, http.StatusBadGateway, body)
	default:
		h.Attempts.Drop(attempt.ID)
		writeError(w, http.StatusBadGateway, errBody{Message: msg, Kind: kind.String()})
	}
}

// ---- cancellation & user ----

func (h *Handlers) requestCancellation(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r, nil); !ok {
		return
	}
	if err := h.API.SubmitCancellationRequest(r.Context(), authCookie(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	// the upstream's approval queue decides the outcome; this is only a request
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "cancellation request submitted"})
}

func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) {
	cookie := authCookie(r)
	if cookie == "" {
		writeError(w, http.StatusUnauthorized, errBody{Message: "not signed in"})
		return
	}
	user, err := h.API.CurrentUser(r.Context(), cookie)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
