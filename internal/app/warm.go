package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"sunset_storefront/internal/domain"
)

// Warmer pre-populates the query-keyed search cache with page-1 results for
// popular destinations, so the first visitors after a deploy hit warm
// entries.
type Warmer struct {
	engine  *SearchEngine
	workers int
	now     func() time.Time
}

func NewWarmer(engine *SearchEngine, workers int) *Warmer {
	if workers <= 0 {
		workers = 4
	}
	return &Warmer{engine: engine, workers: workers, now: time.Now}
}

// Warm runs one default-criteria search per destination through the engine,
// bounded by a weighted semaphore. Failures are logged and skipped; warming
// is best-effort.
func (w *Warmer) Warm(ctx context.Context, destinations []string) error {
	sem := semaphore.NewWeighted(int64(w.workers))
	var wg sync.WaitGroup

	for _, dest := range destinations {
		if err := sem.Acquire(ctx, 1); err != nil {
			// let in-flight searches finish before reporting the cancellation
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func(dest string) {
			defer wg.Done()
			defer sem.Release(1)

			c := domain.DefaultCriteria(w.now())
			c.Destination = dest
			if _, err := w.engine.Search(ctx, "warmup:"+dest, "", c, domain.NewFilterState()); err != nil {
				log.Warn().Str("destination", dest).Err(err).Msg("warm search failed")
				return
			}
			log.Info().Str("destination", dest).Msg("warm search ok")
		}(dest)
	}

	wg.Wait()
	return nil
}
