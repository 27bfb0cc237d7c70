package stars

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/cache"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
)

const (
	DefaultBatchSize = 30
	DefaultDelay     = 250 * time.Millisecond
)

// BulkLookup returns star counts for every URI it knows about. URIs it does
// not return are treated as having zero stars.
type BulkLookup interface {
	FetchStarCounts(ctx context.Context, uris []string) (map[string]int, error)
}

// Cache holds star counts per URI, shared across requests.
type Cache = cache.Expiring[string, int]

// Fetcher resolves star counts in sequential batches, skipping URIs already
// in the cache.
type Fetcher struct {
	lookup    BulkLookup
	cache     *Cache
	batchSize int
	delay     time.Duration
}

type Option func(*Fetcher)

func WithBatchSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.batchSize = n
		}
	}
}

// WithDelay sets the pause between two batches.
func WithDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.delay = d
		}
	}
}

func NewFetcher(lookup BulkLookup, c *Cache, opts ...Option) *Fetcher {
	f := &Fetcher{
		lookup:    lookup,
		cache:     c,
		batchSize: DefaultBatchSize,
		delay:     DefaultDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a count for every URI in uris, unless isCancelled turns
// true between two batches, in which case the counts gathered so far are
// returned without error. Any failed batch aborts the whole fetch.
// onProgress may be nil.
func (f *Fetcher) Fetch(
	ctx context.Context,
	uris []string,
	isCancelled func() bool,
	onProgress func(domain.ProgressReport),
) (map[string]int, error) {
	if isCancelled == nil {
		isCancelled = func() bool { return false }
	}
	report := func(p domain.ProgressReport) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	result := make(map[string]int, len(uris))
	pending := make([]string, 0, len(uris))
	for _, u := range uris {
		if n, ok := f.cache.Get(u); ok {
			metrics.CacheLookups.WithLabelValues("stars", "hit").Inc()
			result[u] = n
			continue
		}
		metrics.CacheLookups.WithLabelValues("stars", "miss").Inc()
		pending = append(pending, u)
	}

	totalURIs := len(uris)
	cachedURIs := totalURIs - len(pending)
	totalBatches := (len(pending) + f.batchSize - 1) / f.batchSize

	initial := domain.ProgressReport{
		Phase:        domain.PhaseStart,
		DoneBatches:  0,
		TotalBatches: totalBatches,
		DoneURIs:     cachedURIs,
		TotalURIs:    totalURIs,
		Percent:      domain.Percent(cachedURIs, totalURIs),
	}
	if len(pending) == 0 {
		initial.Phase = domain.PhaseDone
		initial.DoneBatches = totalBatches
	}
	report(initial)

	doneBatches, fetchedURIs := 0, 0
	for start := 0; start < len(pending); start += f.batchSize {
		if isCancelled() || ctx.Err() != nil {
			return result, nil
		}

		end := min(start+f.batchSize, len(pending))
		batch := pending[start:end]

		counts, err := f.lookup.FetchStarCounts(ctx, batch)
		if err != nil {
			return nil, err
		}
		metrics.StarBatches.Inc()

		for uri, n := range counts {
			f.cache.Set(uri, n)
			result[uri] = n
		}
		for _, uri := range batch {
			if _, ok := counts[uri]; !ok {
				f.cache.Set(uri, 0)
				result[uri] = 0
			}
		}

		doneBatches++
		fetchedURIs += len(batch)
		doneURIs := min(totalURIs, cachedURIs+fetchedURIs)

		phase := domain.PhaseProgress
		if doneBatches >= totalBatches {
			phase = domain.PhaseDone
		}
		report(domain.ProgressReport{
			Phase:        phase,
			DoneBatches:  doneBatches,
			TotalBatches: totalBatches,
			DoneURIs:     doneURIs,
			TotalURIs:    totalURIs,
			Percent:      domain.Percent(doneURIs, totalURIs),
		})

		if end < len(pending) {
			f.sleep(ctx)
		}
	}

	return result, nil
}

func (f *Fetcher) sleep(ctx context.Context) {
	if f.delay <= 0 {
		return
	}
	t := time.NewTimer(f.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
