package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

const (
	// DefaultSweepInterval is how often expired cache entries are dropped.
	DefaultSweepInterval = 5 * time.Minute
)

// Sweeper drops expired cache entries.
type Sweeper interface {
	Sweep() panel.SweepResult
}

// CacheSweeper periodically removes expired entries so caches do not keep
// growing with pages nobody looks at again.
type CacheSweeper struct {
	target   Sweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCacheSweeper(target Sweeper, log logger.Logger, interval time.Duration) *CacheSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &CacheSweeper{
		target:   target,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep.
func (cs *CacheSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cs.Collect()
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper. It is safe to call more than once.
func (cs *CacheSweeper) Stop() {
	cs.stopOnce.Do(func() { close(cs.stopCh) })
}

// Collect runs one sweep and returns what was removed.
func (cs *CacheSweeper) Collect() panel.SweepResult {
	res := cs.target.Sweep()

	metrics.CacheSwept.WithLabelValues("bookmarks").Add(float64(res.Bookmarks))
	metrics.CacheSwept.WithLabelValues("origin_popular").Add(float64(res.Popular))
	metrics.CacheSwept.WithLabelValues("stars").Add(float64(res.Stars))

	total := res.Bookmarks + res.Popular + res.Stars
	if total > 0 {
		cs.logger.Info("cache sweep completed",
			logger.Int("bookmarks_removed", res.Bookmarks),
			logger.Int("popular_removed", res.Popular),
			logger.Int("stars_removed", res.Stars),
			logger.Int("total_removed", total))
	} else {
		cs.logger.Debug("no expired cache entries")
	}

	return res
}
