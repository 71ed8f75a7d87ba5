package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sunset_storefront/internal/domain"
)

// AttemptState is the checkout flow for one stay. Completed and Failed are
// terminal; changed dates or guests require a fresh attempt with a fresh
// payment intent — a stale client secret is never reused across a changed
// price.
type AttemptState int

const (
	CollectingStay AttemptState = iota
	RequestingIntent
	AwaitingPaymentInput
	Submitting
	Completed
	AttemptFailed
)

func (s AttemptState) String() string {
	switch s {
	case RequestingIntent:
		return "requestingIntent"
	case AwaitingPaymentInput:
		return "awaitingPaymentInput"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	case AttemptFailed:
		return "failed"
	}
	return "collectingStay"
}

// FailureKind distinguishes where an attempt died, so callers can decide
// whether a retry needs a new intent, a new card, or a support ticket.
type FailureKind int

const (
	FailNone FailureKind = iota
	FailValidation
	FailIntent    // intent creation failed; retry re-requests an intent
	FailProcessor // charge declined/errored; nothing was persisted
	FailPartial   // charged but not booked; never retried blindly
)

func (k FailureKind) String() string {
	switch k {
	case FailValidation:
		return "validation"
	case FailIntent:
		return "intent"
	case FailProcessor:
		return "processor"
	case FailPartial:
		return "partial"
	}
	return "none"
}

// Orchestrator drives booking attempts against the upstream API and the
// payment processor. Confirmation strictly precedes persistence; that is
// enforced by sequencing within Submit, not by locking across calls.
type Orchestrator struct {
	api  domain.HotelAPI
	proc domain.PaymentProcessor

	intentTimeout  time.Duration
	confirmTimeout time.Duration
	persistTimeout time.Duration
}

func NewOrchestrator(api domain.HotelAPI, proc domain.PaymentProcessor, intentTO, confirmTO, persistTO time.Duration) *Orchestrator {
	return &Orchestrator{
		api:            api,
		proc:           proc,
		intentTimeout:  intentTO,
		confirmTimeout: confirmTO,
		persistTimeout: persistTO,
	}
}

// Attempt is a single checkout attempt: one hotel, one date/guest
// combination, at most one payment intent.
type Attempt struct {
	ID string

	orc *Orchestrator

	mu           sync.Mutex
	state        AttemptState
	failKind     FailureKind
	failMsg      string
	paymentReady bool
	submitting   bool

	cookie      string
	hotel       domain.HotelSummary
	criteria    domain.SearchCriteria
	guest       domain.GuestProfile
	quote       domain.PriceQuote
	intent      domain.PaymentIntent
	fingerprint string
}

// NewAttempt validates the stay before any network call. Date coherence is
// applied first, so nights is always at least one by the time it is checked.
func (o *Orchestrator) NewAttempt(cookie string, hotel domain.HotelSummary, c domain.SearchCriteria, guest domain.GuestProfile) (*Attempt, error) {
	c = c.Coerced()
	if hotel.ID == "" {
		return nil, &domain.ValidationError{Field: "hotelId", Reason: "missing"}
	}
	if c.AdultCount < 1 {
		return nil, &domain.ValidationError{Field: "adultCount", Reason: "at least one adult is required"}
	}
	if c.ChildrenCount < 0 {
		return nil, &domain.ValidationError{Field: "childrenCount", Reason: "must not be negative"}
	}
	if guest.Email == "" {
		return nil, &domain.ValidationError{Field: "email", Reason: "missing"}
	}
	return &Attempt{
		ID:          uuid.NewString(),
		orc:         o,
		state:       CollectingStay,
		cookie:      cookie,
		hotel:       hotel,
		criteria:    c,
		guest:       guest,
		quote:       Quote(hotel.PricePerNight, c.AdultCount, c.ChildrenCount, c.CheckIn, c.CheckOut),
		fingerprint: stayFingerprint(hotel.ID, c),
	}, nil
}

// Stale reports whether the stay that produced this attempt's intent no
// longer matches the given criteria. A stale attempt must be replaced, never
// resubmitted.
func (a *Attempt) Stale(c domain.SearchCriteria) bool {
	return a.fingerprint != stayFingerprint(a.hotel.ID, c.Coerced())
}

func stayFingerprint(hotelID string, c domain.SearchCriteria) string {
	return fmt.Sprintf("%s|%d|%d|%d|%d", hotelID,
		c.CheckIn.UTC().Unix(), c.CheckOut.UTC().Unix(), c.AdultCount, c.ChildrenCount)
}

func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Failure returns the kind and user-facing message of a failed attempt.
func (a *Attempt) Failure() (FailureKind, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failKind, a.failMsg
}

func (a *Attempt) Quote() domain.PriceQuote { return a.quote }

func (a *Attempt) Intent() domain.PaymentIntent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.intent
}

// RequestIntent asks the upstream to create a pending payment with the
// processor. This step legitimately takes longer than a plain API call (it
// round-trips to the processor), hence its own state and timeout.
func (a *Attempt) RequestIntent(ctx context.Context) error {
	a.mu.Lock()
	if a.state != CollectingStay {
		st := a.state
		a.mu.Unlock()
		return fmt.Errorf("cannot request intent in state %s", st)
	}
	a.state = RequestingIntent
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.orc.intentTimeout)
	defer cancel()

	intent, err := a.orc.api.CreatePaymentIntent(ctx, a.cookie, a.hotel.ID,
		a.quote.Nights, a.criteria.AdultCount, a.criteria.ChildrenCount)
	if err != nil {
		a.fail(FailIntent, "could not set up payment, please try again")
		log.Warn().Err(err).Str("attempt", a.ID).Str("hotel", a.hotel.ID).Msg("payment intent creation failed")
		return err
	}

	a.mu.Lock()
	a.intent = intent
	a.state = AwaitingPaymentInput
	a.mu.Unlock()
	return nil
}

// RetryPayment reopens a processor-failed attempt for another card. The
// price behind the intent has not changed, so the client secret stays valid;
// any other failure kind requires a brand new attempt.
func (a *Attempt) RetryPayment() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != AttemptFailed || a.failKind != FailProcessor {
		return false
	}
	a.state = AwaitingPaymentInput
	a.failKind = FailNone
	a.failMsg = ""
	a.paymentReady = false
	return true
}

// MarkPaymentComplete is fed by the payment widget's own validation callback.
// Submit refuses to run until the flag is true.
func (a *Attempt) MarkPaymentComplete(ready bool) {
	a.mu.Lock()
	a.paymentReady = ready
	a.mu.Unlock()
}

// Submit confirms the charge and, only if the processor succeeds, persists
// the booking under the same payment intent id. A processor error never
// reaches persistence; a persistence error after a confirmed charge is the
// one partial-failure state and is reported as such.
func (a *Attempt) Submit(ctx context.Context, paymentMethodID, returnURL string) error {
	a.mu.Lock()
	if a.state != AwaitingPaymentInput {
		st := a.state
		a.mu.Unlock()
		return fmt.Errorf("cannot submit in state %s", st)
	}
	if !a.paymentReady {
		a.mu.Unlock()
		return &domain.ValidationError{Field: "payment", Reason: "payment details are incomplete"}
	}
	if a.submitting {
		a.mu.Unlock()
		return fmt.Errorf("submission already in flight")
	}
	a.submitting = true
	a.state = Submitting
	intent := a.intent
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.submitting = false
		a.mu.Unlock()
	}()

	cctx, cancel := context.WithTimeout(ctx, a.orc.confirmTimeout)
	res, err := a.orc.proc.ConfirmPayment(cctx, intent.ClientSecret, paymentMethodID, returnURL)
	cancel()
	if err != nil {
		// surface the processor's message verbatim; persistence is skipped
		msg := err.Error()
		var pe *domain.ProcessorError
		if errors.As(err, &pe) {
			msg = pe.Message
		}
		a.fail(FailProcessor, msg)
		log.Warn().Err(err).Str("attempt", a.ID).Msg("payment confirmation failed")
		return err
	}
	if res.Status != "succeeded" {
		err := &domain.ProcessorError{Message: "payment was not completed (" + res.Status + ")"}
		a.fail(FailProcessor, err.Message)
		return err
	}

	record := domain.BookingRecord{
		FirstName:        a.guest.FirstName,
		LastName:         a.guest.LastName,
		Email:            a.guest.Email,
		AdultCount:       a.criteria.AdultCount,
		ChildrenCount:    a.criteria.ChildrenCount,
		CheckIn:          a.criteria.CheckIn,
		CheckOut:         a.criteria.CheckOut,
		HotelID:          a.hotel.ID,
		PaymentIntentID:  intent.PaymentIntentID,
		BookingTotalCost: a.quote.Total,
	}

	pctx, pcancel := context.WithTimeout(ctx, a.orc.persistTimeout)
	perr := a.orc.api.CreateBooking(pctx, a.cookie, record)
	pcancel()
	if perr != nil {
		pf := &domain.PartialFailureError{PaymentIntentID: intent.PaymentIntentID, Cause: perr}
		a.fail(FailPartial, fmt.Sprintf(
			"your payment succeeded but the booking could not be saved; contact support with payment reference %s",
			intent.PaymentIntentID))
		log.Error().Err(perr).Str("attempt", a.ID).Str("payment_intent", intent.PaymentIntentID).
			Msg("booking persistence failed after confirmed charge")
		return pf
	}

	a.mu.Lock()
	a.state = Completed
	a.mu.Unlock()
	log.Info().Str("attempt", a.ID).Str("hotel", a.hotel.ID).Msg("booking completed")
	return nil
}

func (a *Attempt) fail(kind FailureKind, msg string) {
	a.mu.Lock()
	a.state = AttemptFailed
	a.failKind = kind
	a.failMsg = msg
	a.mu.Unlock()
}

// AttemptRegistry holds live attempts between the intent call and the submit
// call. Entries expire so an abandoned checkout does not pin its intent
// forever.
type AttemptRegistry struct {
	mu  sync.Mutex
	m   map[string]registryEntry
	ttl time.Duration
	now func() time.Time
}

type registryEntry struct {
	attempt *Attempt
	expires time.Time
}

func NewAttemptRegistry(ttl time.Duration) *AttemptRegistry {
	return &AttemptRegistry{m: make(map[string]registryEntry), ttl: ttl, now: time.Now}
}

func (r *AttemptRegistry) Put(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.m[a.ID] = registryEntry{attempt: a, expires: r.now().Add(r.ttl)}
}

func (r *AttemptRegistry) Get(id string) (*Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[id]
	if !ok || r.now().After(e.expires) {
		delete(r.m, id)
		return nil, false
	}
	return e.attempt, true
}

func (r *AttemptRegistry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

func (r *AttemptRegistry) sweepLocked() {
	now := r.now()
	for id, e := range r.m {
		if now.After(e.expires) {
			delete(r.m, id)
		}
	}
}
