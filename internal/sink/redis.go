package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
)

const DefaultChannel = "sidemark:events"

// RedisPublisher publishes every message as JSON on a Pub/Sub channel so
// other processes can follow the panel stream. Nothing is stored.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	timeout time.Duration
	log     logger.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, log logger.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		rdb:     rdb,
		channel: channel,
		timeout: 2 * time.Second,
		log:     log,
	}
}

func (p *RedisPublisher) Channel() string { return p.channel }

func (p *RedisPublisher) Emit(ctx context.Context, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("failed to encode message", logger.String("type", string(msg.Type)), logger.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.rdb.Publish(pubCtx, p.channel, payload).Err(); err != nil {
		p.log.Warn("redis publish failed",
			logger.String("channel", p.channel),
			logger.String("type", string(msg.Type)),
			logger.Error(err))
	}
}
