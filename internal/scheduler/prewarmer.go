package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/sources/watchlist"
)

const (
	// DefaultPrewarmInterval is how often the watchlist is fetched again.
	DefaultPrewarmInterval = 30 * time.Minute
)

// Warmer fills caches without emitting panel messages.
type Warmer interface {
	WarmBookmarks(ctx context.Context, url string) error
	WarmOriginPopular(ctx context.Context, hostOrURL string) error
}

// Prewarmer keeps the pages and hosts of a watchlist file in cache.
type Prewarmer struct {
	loader        *watchlist.Loader
	mapper        *watchlist.Mapper
	warmer        Warmer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu       sync.Mutex
	lastRun  time.Time
	lastSize int
}

func NewPrewarmer(
	watchlistFile string,
	warmer Warmer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Prewarmer {
	if interval <= 0 {
		interval = DefaultPrewarmInterval
	}

	return &Prewarmer{
		loader:        watchlist.NewLoader(watchlistFile),
		mapper:        watchlist.NewMapper(),
		warmer:        warmer,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start validates the watchlist, then warms it in the background right
// away and on every tick or manual trigger.
func (p *Prewarmer) Start(ctx context.Context) error {
	if _, err := p.targets(); err != nil {
		return fmt.Errorf("initial watchlist load failed: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		p.run(ctx)
		for {
			select {
			case <-ticker.C:
				p.run(ctx)
			case <-p.manualTrigger:
				p.logger.Info("manual prewarm triggered")
				p.run(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the prewarmer. It is safe to call more than once.
func (p *Prewarmer) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

func (p *Prewarmer) run(ctx context.Context) {
	if err := p.Reload(ctx); err != nil {
		p.logger.Error("failed to prewarm watchlist", logger.Error(err))
	}
}

// Reload reads the watchlist again and warms every target. Individual
// fetch failures are logged; only an unreadable watchlist is an error.
func (p *Prewarmer) Reload(ctx context.Context) error {
	targets, err := p.targets()
	if err != nil {
		return err
	}

	p.logger.Info("prewarming watchlist",
		logger.Int("urls", len(targets.URLs)),
		logger.Int("origins", len(targets.Origins)))

	start := time.Now()
	failed := 0
	for _, u := range targets.URLs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.warmer.WarmBookmarks(ctx, u); err != nil {
			failed++
			p.logger.Warn("failed to prewarm bookmarks", logger.String("url", u), logger.Error(err))
		}
	}
	for _, host := range targets.Origins {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.warmer.WarmOriginPopular(ctx, host); err != nil {
			failed++
			p.logger.Warn("failed to prewarm origin", logger.String("host", host), logger.Error(err))
		}
	}

	p.mu.Lock()
	p.lastRun = time.Now()
	p.lastSize = targets.Len()
	p.mu.Unlock()

	p.logger.Info("watchlist prewarmed",
		logger.Int("targets", targets.Len()),
		logger.Int("failed", failed),
		logger.Duration("took", time.Since(start)))
	return nil
}

// LastRun returns when the last prewarm finished and how many targets it had.
func (p *Prewarmer) LastRun() (time.Time, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun, p.lastSize
}

func (p *Prewarmer) targets() (watchlist.Targets, error) {
	cfg, err := p.loader.Load()
	if err != nil {
		return watchlist.Targets{}, fmt.Errorf("failed to load watchlist: %w", err)
	}
	targets, err := p.mapper.Map(cfg)
	if err != nil {
		return watchlist.Targets{}, fmt.Errorf("failed to map watchlist: %w", err)
	}
	return targets, nil
}
