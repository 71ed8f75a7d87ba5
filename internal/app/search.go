package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sunset_storefront/internal/domain"
)

// SearchState is the results screen's lifecycle for one session.
type SearchState int

const (
	SearchIdle SearchState = iota
	SearchLoading
	SearchSuccess
	SearchFailed
)

func (s SearchState) String() string {
	switch s {
	case SearchLoading:
		return "loading"
	case SearchSuccess:
		return "success"
	case SearchFailed:
		return "failed"
	}
	return "idle"
}

// SearchView is what a session currently sees: the last applied result set
// plus the state and, when failed, a display-only reason. On failure the
// previous results stay visible and the filter selection is never rolled
// back, so a resubmit reuses the same canonical query.
type SearchView struct {
	State   SearchState
	Results domain.SearchPage
	Reason  string
}

// SearchEngine turns criteria + filters into a canonical query, serves it
// through a query-keyed cache with in-flight de-duplication, and applies
// responses last-write-wins per session so a late response for superseded
// filters never overwrites a newer one.
type SearchEngine struct {
	api   domain.HotelAPI
	cache domain.Cache
	ttl   time.Duration

	group singleflight.Group

	mu    sync.Mutex
	views map[string]*sessionView
}

type sessionView struct {
	latest  uint64 // last issued query sequence
	applied uint64 // sequence of the currently visible result set
	view    SearchView
}

func NewSearchEngine(api domain.HotelAPI, cache domain.Cache, ttl time.Duration) *SearchEngine {
	return &SearchEngine{api: api, cache: cache, ttl: ttl, views: make(map[string]*sessionView)}
}

// Search issues the canonical query for the session and returns its result.
// The session's visible view only advances if no newer query was issued while
// this one was in flight.
func (e *SearchEngine) Search(ctx context.Context, sessionID, cookie string, c domain.SearchCriteria, f domain.FilterState) (domain.SearchPage, error) {
	seq := e.begin(sessionID)
	key := CanonicalKey(c, f)

	page, err := e.fetch(ctx, cookie, key)
	e.apply(sessionID, seq, page, err)
	return page, err
}

// View returns the session's current state and visible result set.
func (e *SearchEngine) View(sessionID string) SearchView {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sv, ok := e.views[sessionID]; ok {
		return sv.view
	}
	return SearchView{State: SearchIdle}
}

func (e *SearchEngine) begin(sessionID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	sv := e.views[sessionID]
	if sv == nil {
		sv = &sessionView{}
		e.views[sessionID] = sv
	}
	sv.latest++
	sv.view.State = SearchLoading
	return sv.latest
}

// apply installs a response for the given sequence. Stale responses (a newer
// query was issued, or a newer one already applied) are discarded.
func (e *SearchEngine) apply(sessionID string, seq uint64, page domain.SearchPage, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sv := e.views[sessionID]
	if sv == nil {
		return
	}
	if seq < sv.latest || seq <= sv.applied {
		return
	}
	sv.applied = seq
	if err != nil {
		// keep the previous result set visible; record the reason only
		sv.view.State = SearchFailed
		sv.view.Reason = err.Error()
		return
	}
	sv.view = SearchView{State: SearchSuccess, Results: page}
}

// fetch is cache-aside over the canonical key, with identical concurrent
// queries collapsed into a single upstream call.
func (e *SearchEngine) fetch(ctx context.Context, cookie, key string) (domain.SearchPage, error) {
	var cached domain.SearchPage
	if ok, _ := e.cache.Get(ctx, "search:"+key, &cached); ok {
		return cached, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		q, perr := parseKey(key)
		if perr != nil {
			return domain.SearchPage{}, perr
		}
		page, ferr := e.api.SearchHotels(ctx, cookie, q)
		if ferr != nil {
			return domain.SearchPage{}, ferr
		}
		_ = e.cache.Set(ctx, "search:"+key, copyPage(page), e.ttl)
		return page, nil
	})
	if err != nil {
		return domain.SearchPage{}, err
	}
	return copyPage(v.(domain.SearchPage)), nil
}

// copyPage detaches the slice from any shared backing array before it is
// cached or handed out.
func copyPage(in domain.SearchPage) domain.SearchPage {
	out := domain.SearchPage{Pagination: in.Pagination}
	if n := len(in.Data); n > 0 {
		out.Data = make([]domain.HotelSummary, n)
		copy(out.Data, in.Data)
	}
	return out
}
