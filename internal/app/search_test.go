package app_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sunset_storefront/internal/app"
	"sunset_storefront/internal/domain"
)

func pageWith(names ...string) domain.SearchPage {
	out := domain.SearchPage{Pagination: domain.Pagination{Page: 1, Pages: 1, TotalHotels: len(names)}}
	for _, n := range names {
		out.Data = append(out.Data, domain.HotelSummary{ID: n, Name: n, Rating: 4, PricePerNight: 100})
	}
	return out
}

// A late response for superseded filters must never overwrite a newer one.
func TestSearchEngine_DiscardsStaleResponse(t *testing.T) {
	releaseA := make(chan struct{})
	aStarted := make(chan struct{})

	api := &fakeAPI{}
	api.searchFn = func(q url.Values) (domain.SearchPage, error) {
		if q.Get("destination") == "A" {
			close(aStarted)
			<-releaseA
			return pageWith("hotel-a"), nil
		}
		return pageWith("hotel-b"), nil
	}

	engine := app.NewSearchEngine(api, &fakeCache{}, time.Minute)
	ctx := context.Background()

	cA := testCriteria()
	cA.Destination = "A"
	cB := testCriteria()
	cB.Destination = "B"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = engine.Search(ctx, "s1", "", cA, domain.NewFilterState())
	}()

	<-aStarted
	_, err := engine.Search(ctx, "s1", "", cB, domain.NewFilterState())
	require.NoError(t, err)

	close(releaseA) // A resolves after B
	wg.Wait()

	view := engine.View("s1")
	require.Equal(t, app.SearchSuccess, view.State)
	require.Len(t, view.Results.Data, 1)
	require.Equal(t, "hotel-b", view.Results.Data[0].ID, "visible results must reflect the newest query")
}

// Identical concurrent queries collapse into one upstream call.
func TestSearchEngine_DedupesIdenticalInFlightQueries(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	api := &fakeAPI{}
	api.searchFn = func(q url.Values) (domain.SearchPage, error) {
		entered <- struct{}{}
		<-release
		return pageWith("hotel-x"), nil
	}

	engine := app.NewSearchEngine(api, &fakeCache{}, time.Minute)
	ctx := context.Background()
	c := testCriteria()

	var wg sync.WaitGroup
	for _, session := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			page, err := engine.Search(ctx, sid, "", c, domain.NewFilterState())
			require.NoError(t, err)
			require.Len(t, page.Data, 1)
		}(session)
	}

	<-entered // first call is in flight
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, api.SearchCalls(), "identical in-flight queries must share one upstream call")
}

func TestSearchEngine_ServesSecondHitFromCache(t *testing.T) {
	api := &fakeAPI{}
	api.searchFn = func(q url.Values) (domain.SearchPage, error) { return pageWith("hotel-c"), nil }

	engine := app.NewSearchEngine(api, &fakeCache{}, time.Minute)
	ctx := context.Background()
	c := testCriteria()

	_, err := engine.Search(ctx, "s1", "", c, domain.NewFilterState())
	require.NoError(t, err)
	_, err = engine.Search(ctx, "s1", "", c, domain.NewFilterState())
	require.NoError(t, err)

	require.Equal(t, 1, api.SearchCalls(), "second identical query should come from cache")
}

// Failure keeps the previously visible results and records a reason; the
// filter state that produced the failed request is the caller's to resubmit.
func TestSearchEngine_FailureKeepsPreviousResults(t *testing.T) {
	api := &fakeAPI{}
	api.searchFn = func(q url.Values) (domain.SearchPage, error) { return pageWith("hotel-ok"), nil }

	engine := app.NewSearchEngine(api, &fakeCache{}, time.Minute)
	ctx := context.Background()

	c := testCriteria()
	_, err := engine.Search(ctx, "s1", "", c, domain.NewFilterState())
	require.NoError(t, err)

	api.mu.Lock()
	api.searchFn = func(q url.Values) (domain.SearchPage, error) {
		return domain.SearchPage{}, &domain.RemoteError{Status: 500, Message: "search is down"}
	}
	api.mu.Unlock()

	c.Destination = "Elsewhere"
	_, err = engine.Search(ctx, "s1", "", c, domain.NewFilterState())
	require.Error(t, err)

	view := engine.View("s1")
	require.Equal(t, app.SearchFailed, view.State)
	require.Equal(t, "upstream 500: search is down", view.Reason)
	require.Len(t, view.Results.Data, 1, "previous results stay visible on failure")
	require.Equal(t, "hotel-ok", view.Results.Data[0].ID)
}

func TestSearchEngine_PaginationIsUpstreamAuthoritative(t *testing.T) {
	api := &fakeAPI{}
	api.searchFn = func(q url.Values) (domain.SearchPage, error) {
		// upstream reports more hotels than this page carries
		p := pageWith("one", "two")
		p.Pagination = domain.Pagination{Page: 2, Pages: 7, TotalHotels: 33}
		return p, nil
	}

	engine := app.NewSearchEngine(api, &fakeCache{}, time.Minute)
	page, err := engine.Search(context.Background(), "s1", "", testCriteria(), domain.NewFilterState().WithPage(2))
	require.NoError(t, err)
	require.Equal(t, domain.Pagination{Page: 2, Pages: 7, TotalHotels: 33}, page.Pagination)
}
