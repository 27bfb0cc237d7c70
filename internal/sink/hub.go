package sink

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
)

const DefaultSubscriberBuffer = 64

// Subscriber is one event stream consumer.
type Subscriber struct {
	ID string
	C  <-chan Message

	c      chan Message
	stream *sequencer.Stream
}

func (s *Subscriber) wants(msg Message) bool {
	return s.stream == nil || *s.stream == msg.Type.Stream()
}

// Hub fans messages out to event stream subscribers. Per subscriber,
// messages arrive in emit order; a subscriber whose buffer is full misses
// the message.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	log    logger.Logger
}

func NewHub(buffer int, log logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registers a consumer. A nil stream receives every message.
func (h *Hub) Subscribe(stream *sequencer.Stream) *Subscriber {
	c := make(chan Message, h.buffer)
	s := &Subscriber{
		ID:     uuid.NewString(),
		C:      c,
		c:      c,
		stream: stream,
	}

	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()

	metrics.HubSubscribers.Inc()
	h.log.Debug("subscriber added", logger.String("id", s.ID), logger.Int("subscribers", n))
	return s
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(s.c)
	}
	h.mu.Unlock()

	if ok {
		metrics.HubSubscribers.Dec()
		h.log.Debug("subscriber removed", logger.String("id", id))
	}
}

func (h *Hub) Emit(_ context.Context, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs {
		if !s.wants(msg) {
			continue
		}
		select {
		case s.c <- msg:
		default:
			metrics.HubDropped.Inc()
			h.log.Warn("subscriber buffer full, message dropped",
				logger.String("id", s.ID),
				logger.String("type", string(msg.Type)))
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		close(s.c)
		delete(h.subs, id)
		metrics.HubSubscribers.Dec()
	}
}
