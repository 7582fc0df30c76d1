package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/search"
	"ofertaglobal/dealfinder/logger"
)

// Worker periodically runs the trending searches so their results stay cached and
// published before anyone asks for them
type Worker struct {
	searcher search.Searcher
	location string
	queries  []string
	modes    []deal.Mode
	interval time.Duration
	log      *logger.Logger
}

// NewWorker creates a new worker for the given location
func NewWorker(
	searcher search.Searcher,
	location string,
	queries []string,
	interval time.Duration,
) *Worker {
	return &Worker{
		searcher: searcher,
		location: location,
		queries:  queries,
		modes:    deal.Modes,
		interval: interval,
		log:      logger.ForWorker(),
	}
}

// Start runs rounds until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := time.Now()
		stats := w.runRound(ctx)
		w.log.Info().
			Int("searches", stats.searches).
			Int("deals", stats.deals).
			Int("failed", stats.failed).
			Dur("elapsed", time.Since(start)).
			Msg("Trending round finished")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.interval):
		}
	}
}

type roundStats struct {
	searches int
	deals    int
	failed   int
}

// runRound searches every query in parallel, walking the modes of one query in order
func (w *Worker) runRound(ctx context.Context) roundStats {
	var (
		wg       sync.WaitGroup
		searches atomic.Int64
		deals    atomic.Int64
		failed   atomic.Int64
	)

	for _, q := range w.queries {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			for _, mode := range w.modes {
				if ctx.Err() != nil {
					return
				}
				result := w.searcher.Search(ctx, query, w.location, mode)
				searches.Add(1)
				deals.Add(int64(len(result.Results)))
				if result.Failed {
					failed.Add(1)
					w.log.Warn().
						Str("query", query).
						Str("mode", string(mode)).
						Msg("Trending search failed")
				}
			}
		}(q)
	}
	wg.Wait()

	return roundStats{
		searches: int(searches.Load()),
		deals:    int(deals.Load()),
		failed:   int(failed.Load()),
	}
}
