package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
)

// Panel is what the trigger and infra handlers need from the panel service.
type Panel interface {
	RequestBookmarks(ctx context.Context, req panel.BookmarksRequest) (uint64, error)
	RequestOriginPopular(ctx context.Context, req panel.PopularRequest) (uint64, error)
	Stats() panel.Stats
}

// PrewarmStatus reports the last watchlist prewarm.
type PrewarmStatus interface {
	LastRun() (time.Time, int)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // IPs allowed to access healthz/readyz/infra/reload
	AllowedOrigins []string         // CORS origins for the extension panel
	TrustProxy     bool             // true if running behind a trusted reverse proxy
	RateLimit      int              // trigger burst per client IP (0 disables)
	RatePerMinute  int              // trigger refill per client IP
	Panel          Panel            // bookmark and popularity pipelines
	Hub            *sink.Hub        // event stream fan-out
	RedisClient    *redis.Client    // nil when the Pub/Sub publisher is disabled
	RedisChannel   string           // Pub/Sub channel the publisher writes to
	ReloadTrigger  chan struct{}    // manual prewarm trigger (nil if no watchlist)
	Prewarm        PrewarmStatus    // nil if no watchlist
	Ready          func() bool      // nil means always ready
}
