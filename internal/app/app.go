package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sidemark/internal/config"
	"github.com/MrSnakeDoc/sidemark/internal/httpserver"
	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
	"github.com/MrSnakeDoc/sidemark/internal/redis"
	"github.com/MrSnakeDoc/sidemark/internal/scheduler"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
	"github.com/MrSnakeDoc/sidemark/internal/utils"
	"github.com/MrSnakeDoc/sidemark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	hub         *sink.Hub
	panel       *panel.Service
	sweeper     *scheduler.CacheSweeper
	prewarmer   *scheduler.Prewarmer
	ready       *atomic.Bool
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	hub := sink.NewHub(cfg.SubscriberBuffer, loggerClient.With(logger.String("component", "hub")))
	out := sink.Multi{hub}

	// Redis is optional: when configured, it must be reachable at startup.
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		var err error
		redisClient, err = redis.Connect(context.Background(), redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		out = append(out, sink.NewRedisPublisher(redisClient, cfg.RedisChannel, loggerClient))
		loggerClient.Info("publishing panel messages to redis",
			logger.String("channel", cfg.RedisChannel))
	} else {
		loggerClient.Info("redis not configured, pub/sub publishing disabled")
	}

	svc := NewPanel(cfg, loggerClient, out)

	sweeper := scheduler.NewCacheSweeper(svc, loggerClient, cfg.SweepInterval)

	var prewarmer *scheduler.Prewarmer
	var reloadTrigger chan struct{}
	if cfg.WatchlistFile != "" {
		loggerClient.Info("watchlist configured, initializing prewarmer",
			logger.String("file", cfg.WatchlistFile))
		reloadTrigger = make(chan struct{}, 1)
		prewarmer = scheduler.NewPrewarmer(
			cfg.WatchlistFile,
			svc,
			loggerClient,
			cfg.PrewarmInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("watchlist not configured, prewarm disabled")
	}

	ready := &atomic.Bool{}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		RateLimit:      cfg.RateLimitBurst,
		RatePerMinute:  cfg.RateLimitPerMinute,
		Panel:          svc,
		Hub:            hub,
		RedisClient:    redisClient,
		RedisChannel:   cfg.RedisChannel,
		ReloadTrigger:  reloadTrigger,
		Ready:          ready.Load,
	}
	if prewarmer != nil {
		d.Prewarm = prewarmer
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		hub:         hub,
		panel:       svc,
		sweeper:     sweeper,
		prewarmer:   prewarmer,
		ready:       ready,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Sidemark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Sidemark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.prewarmer != nil {
		if err := a.prewarmer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start prewarmer: %w", err)
		}
		a.logger.Info("prewarmer started",
			logger.Duration("interval", a.cfg.PrewarmInterval))
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache sweeper: %w", err)
	}
	a.logger.Info("cache sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()
	a.ready.Store(true)

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}
	a.ready.Store(false)

	if a.prewarmer != nil {
		a.prewarmer.Stop()
	}
	a.sweeper.Stop()

	// Close event streams first so Shutdown does not wait on them.
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, a.logger)
		a.logger.Info("✅ Redis closed")
	}

	a.logger.Info("✅ Sidemark stopped cleanly")
	return nil
}
