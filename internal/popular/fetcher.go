package popular

import (
	"context"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/cache"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
)

// Source lists the most bookmarked pages of a host.
type Source interface {
	FetchOriginPopular(ctx context.Context, host string) ([]domain.PopularItem, error)
}

// Cache holds popular pages per host.
type Cache = cache.Expiring[string, []domain.PopularItem]

// Fetcher runs origin popularity requests.
type Fetcher struct {
	source Source
	cache  *Cache
	seq    *sequencer.Sequencer
	sink   sink.Sink
	log    logger.Logger
}

func NewFetcher(source Source, c *Cache, seq *sequencer.Sequencer, out sink.Sink, log logger.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		cache:  c,
		seq:    seq,
		sink:   out,
		log:    log.With(logger.String("component", "popular")),
	}
}

// WithSink returns a copy emitting to out.
func (f *Fetcher) WithSink(out sink.Sink) *Fetcher {
	cp := *f
	cp.sink = out
	return &cp
}

// Fetch resolves the popular pages of hostOrURL under token.
func (f *Fetcher) Fetch(ctx context.Context, hostOrURL string, token uint64) error {
	host, ok := NormalizeHost(hostOrURL)
	if !ok {
		f.log.Debug("invalid origin, sending empty list", logger.String("input", hostOrURL))
		f.emit(ctx, token, sink.Message{Type: sink.OriginPopularUpdate, Key: "", Items: []domain.PopularItem{}})
		return nil
	}

	log := f.log.With(logger.String("host", host), logger.Uint64("token", token))

	items, hit := f.cache.Get(host)
	metrics.CacheLookups.WithLabelValues("origin_popular", metrics.CacheResult(hit)).Inc()
	if hit {
		log.Debug("serving cached popular pages")
		f.emit(ctx, token, sink.Message{Type: sink.OriginPopularUpdate, Key: host, Items: items})
		return nil
	}

	f.emit(ctx, token, sink.Message{Type: sink.OriginPopularLoading, Key: host})

	items, err := f.source.FetchOriginPopular(ctx, host)
	if err != nil {
		log.Warn("popular fetch failed", logger.Error(err))
		f.emit(ctx, token, sink.Message{Type: sink.OriginPopularError, Key: host, Error: err.Error()})
		return err
	}

	f.cache.Set(host, items)
	f.emit(ctx, token, sink.Message{Type: sink.OriginPopularUpdate, Key: host, Items: items})
	log.Debug("popular pages fetched", logger.Int("items", len(items)))
	return nil
}

func (f *Fetcher) emit(ctx context.Context, token uint64, msg sink.Message) {
	if f.seq.IsStale(sequencer.OriginPopular, token) {
		metrics.StaleSuppressed.WithLabelValues(sequencer.OriginPopular.String()).Inc()
		return
	}
	msg.Token = token
	f.sink.Emit(ctx, msg)
}

// NormalizeHost returns the hostname of a URL or bare host. Input without a
// scheme is read as https. Only http and https are accepted.
func NormalizeHost(hostOrURL string) (string, bool) {
	s := strings.TrimSpace(hostOrURL)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}
