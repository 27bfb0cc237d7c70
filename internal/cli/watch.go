package cli

import (
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/redis"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
	"github.com/MrSnakeDoc/sidemark/internal/utils"
)

// published is the part of a published message watch needs to filter and
// summarize it.
type published struct {
	Type      sink.Type `json:"type"`
	URL       string    `json:"url"`
	Origin    string    `json:"origin"`
	RequestID uint64    `json:"requestId"`
	Error     string    `json:"error"`
}

// Execute implements the go-flags Commander interface for WatchCommand.
func (c *WatchCommand) Execute(_ []string) error {
	var filter *sequencer.Stream
	if c.Stream != "" {
		s, ok := sequencer.ParseStream(c.Stream)
		if !ok {
			return fmt.Errorf("--stream must be %q or %q, got %q", sequencer.Bookmarks, sequencer.OriginPopular, c.Stream)
		}
		filter = &s
	}

	cfg := c.env.loadConfig()
	if !cfg.RedisEnabled() {
		return fmt.Errorf("SIDEMARK_REDIS_ADDR is not set")
	}
	channel := c.Channel
	if channel == "" {
		channel = cfg.RedisChannel
	}

	log := newLogger(c.globals)
	ctx, stop := signalContext()
	defer stop()

	rdb, err := redis.Connect(ctx, redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       1,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return err
	}
	defer utils.MustClose(rdb, log)

	sub := rdb.Subscribe(ctx, channel)
	defer utils.MustClose(sub, log)
	log.Info("watching channel", logger.String("channel", channel))

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		c.print(msg.Payload, filter)
	}
}

func (c *WatchCommand) print(payload string, filter *sequencer.Stream) {
	var p published
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return
	}
	if filter != nil && p.Type.Stream() != *filter {
		return
	}

	if c.globals != nil && c.globals.JSON {
		_, _ = fmt.Fprintln(c.env.stdout, payload)
		return
	}

	key := p.URL
	if key == "" {
		key = p.Origin
	}
	line := fmt.Sprintf("#%d %s %s", p.RequestID, p.Type, key)
	if p.Error != "" {
		line += ": " + p.Error
	}
	_, _ = fmt.Fprintln(c.env.stdout, line)
}
