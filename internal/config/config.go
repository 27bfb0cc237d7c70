package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PopularSourceJSON = "json"
	PopularSourceRSS  = "rss"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Upstream
	UpstreamTimeout time.Duration // http.Client timeout for every upstream call
	BookmarkBaseURL string        // entry + entrylist API host
	StarBaseURL     string        // star API host
	PopularSource   string        // "json" | "rss"

	// Pipeline
	BookmarkTTL          time.Duration // view model cache (default 10m)
	PopularTTL           time.Duration // origin popularity cache (default 60m)
	StarTTL              time.Duration // star count cache (default 60m)
	StarBatchSize        int           // URIs per star lookup (default 30)
	StarBatchDelay       time.Duration // pause between star batches (default 250ms)
	IncludeEmptyComments bool          // keep bookmarks without comment text
	CanonicalLookup      bool          // resolve <link rel=canonical> when a tab id is given
	CanonicalTimeout     time.Duration // page fetch timeout for the canonical lookup

	// Background jobs
	SweepInterval    time.Duration // expired cache entry sweep (default 5m)
	PrewarmInterval  time.Duration // watchlist prewarm (default 30m)
	WatchlistFile    string        // optional, empty = prewarm disabled
	SubscriberBuffer int           // per event stream subscriber buffer

	// Redis (optional, empty addr = publisher disabled)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisChannel        string        // Pub/Sub channel for panel messages
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict health/infra endpoints to these networks
	AllowedOrigins []string // CORS origins, "*" allows any (ex: "chrome-extension://abcdef")
	TrustProxy     bool     // true => trust X-Forwarded-For headers

	// Trigger rate limit (per client IP)
	RateLimitBurst     int
	RateLimitPerMinute int
}

// Load reads .env (if present) and the environment. Invalid values panic.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SIDEMARK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SIDEMARK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SIDEMARK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SIDEMARK_PRETTY_LOG", true),

		// Upstream
		UpstreamTimeout: mustDuration("SIDEMARK_UPSTREAM_TIMEOUT", 30*time.Second),
		BookmarkBaseURL: getenv("SIDEMARK_BOOKMARK_BASE_URL", "https://b.hatena.ne.jp"),
		StarBaseURL:     getenv("SIDEMARK_STAR_BASE_URL", "https://s.hatena.com"),
		PopularSource:   strings.ToLower(getenv("SIDEMARK_POPULAR_SOURCE", PopularSourceJSON)),

		// Pipeline
		BookmarkTTL:          mustDuration("SIDEMARK_BOOKMARK_TTL", 10*time.Minute),
		PopularTTL:           mustDuration("SIDEMARK_POPULAR_TTL", 60*time.Minute),
		StarTTL:              mustDuration("SIDEMARK_STAR_TTL", 60*time.Minute),
		StarBatchSize:        getenvInt("SIDEMARK_STAR_BATCH_SIZE", 30),
		StarBatchDelay:       mustDuration("SIDEMARK_STAR_BATCH_DELAY", 250*time.Millisecond),
		IncludeEmptyComments: mustBool("SIDEMARK_INCLUDE_EMPTY_COMMENTS", false),
		CanonicalLookup:      mustBool("SIDEMARK_CANONICAL_LOOKUP", true),
		CanonicalTimeout:     mustDuration("SIDEMARK_CANONICAL_TIMEOUT", 5*time.Second),

		// Background jobs
		SweepInterval:    mustDuration("SIDEMARK_SWEEP_INTERVAL", 5*time.Minute),
		PrewarmInterval:  mustDuration("SIDEMARK_PREWARM_INTERVAL", 30*time.Minute),
		WatchlistFile:    getenv("SIDEMARK_WATCHLIST_FILE", ""),
		SubscriberBuffer: getenvInt("SIDEMARK_SUBSCRIBER_BUFFER", 64),

		// Redis settings
		RedisAddr:           getenv("SIDEMARK_REDIS_ADDR", ""),
		RedisUser:           getenv("SIDEMARK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("SIDEMARK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SIDEMARK_REDIS_DB", 0),
		RedisChannel:        getenv("SIDEMARK_REDIS_CHANNEL", "sidemark:events"),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("SIDEMARK_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   parseAllowedIPs(getenv("SIDEMARK_ALLOWED_CIDRS", "")),
		AllowedOrigins: splitAndTrim(getenv("SIDEMARK_ALLOWED_ORIGINS", "*")),
		TrustProxy:     mustBool("SIDEMARK_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("SIDEMARK_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("SIDEMARK_RATE_LIMIT_PER_MINUTE", 120),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.PopularSource {
	case PopularSourceJSON, PopularSourceRSS:
	default:
		return fmt.Errorf("SIDEMARK_POPULAR_SOURCE must be %q or %q, got %q", PopularSourceJSON, PopularSourceRSS, c.PopularSource)
	}
	if c.StarBatchSize < 1 {
		return fmt.Errorf("SIDEMARK_STAR_BATCH_SIZE must be >= 1, got %d", c.StarBatchSize)
	}
	if c.StarBatchDelay < 0 {
		return fmt.Errorf("SIDEMARK_STAR_BATCH_DELAY must be >= 0, got %v", c.StarBatchDelay)
	}
	for name, d := range map[string]time.Duration{
		"SIDEMARK_BOOKMARK_TTL":     c.BookmarkTTL,
		"SIDEMARK_POPULAR_TTL":      c.PopularTTL,
		"SIDEMARK_STAR_TTL":         c.StarTTL,
		"SIDEMARK_SWEEP_INTERVAL":   c.SweepInterval,
		"SIDEMARK_PREWARM_INTERVAL": c.PrewarmInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", name, d)
		}
	}
	return nil
}

// RedisEnabled reports whether the Pub/Sub publisher should be started.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
