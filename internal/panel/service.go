package panel

import (
	"context"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/aggregator"
	"github.com/MrSnakeDoc/sidemark/internal/cache"
	"github.com/MrSnakeDoc/sidemark/internal/canonical"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/popular"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
	"github.com/MrSnakeDoc/sidemark/internal/stars"
)

// Options tunes the pipeline. Zero values fall back to the defaults; a
// negative StarBatchDelay disables the pause between star batches.
type Options struct {
	BookmarkTTL          time.Duration
	PopularTTL           time.Duration
	StarTTL              time.Duration
	StarBatchSize        int
	StarBatchDelay       time.Duration
	IncludeEmptyComments bool
	Clock                func() time.Time
}

const (
	DefaultBookmarkTTL = 10 * time.Minute
	DefaultPopularTTL  = 60 * time.Minute
	DefaultStarTTL     = 60 * time.Minute
)

// Upstream is everything the panel needs from the bookmark service.
type Upstream interface {
	aggregator.EntryLister
	stars.BulkLookup
}

// CanonicalResolver finds the canonical URL of a page open in a tab.
type CanonicalResolver interface {
	Resolve(ctx context.Context, pageURL string, tabID int) canonical.Result
}

// BookmarksRequest asks for the bookmarks of URL. TabID > 0 enables the
// canonical URL lookup.
type BookmarksRequest struct {
	URL   string `json:"url"`
	TabID int    `json:"tabId,omitempty"`
}

// PopularRequest asks for the popular pages of Origin, or of URL's host
// when Origin is empty.
type PopularRequest struct {
	URL    string `json:"url,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Stats is a snapshot of the service state.
type Stats struct {
	BookmarkEntries int    `json:"bookmarkEntries"`
	PopularEntries  int    `json:"popularEntries"`
	StarEntries     int    `json:"starEntries"`
	BookmarksToken  uint64 `json:"bookmarksToken"`
	PopularToken    uint64 `json:"originPopularToken"`
}

// SweepResult counts expired entries removed per cache.
type SweepResult struct {
	Bookmarks int
	Popular   int
	Stars     int
}

// Service owns the caches and request counters shared by every trigger.
type Service struct {
	seq        *sequencer.Sequencer
	bookmarks  *aggregator.Cache
	popularity *popular.Cache
	starCounts *stars.Cache

	aggregator *aggregator.Aggregator
	popular    *popular.Fetcher
	canonical  CanonicalResolver

	log logger.Logger
}

// New wires the pipeline. canon may be nil to disable canonical lookups.
func New(up Upstream, src popular.Source, canon CanonicalResolver, out sink.Sink, log logger.Logger, opts Options) *Service {
	if opts.BookmarkTTL <= 0 {
		opts.BookmarkTTL = DefaultBookmarkTTL
	}
	if opts.PopularTTL <= 0 {
		opts.PopularTTL = DefaultPopularTTL
	}
	if opts.StarTTL <= 0 {
		opts.StarTTL = DefaultStarTTL
	}
	var cacheOpts []cache.Option
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}

	s := &Service{
		seq:        sequencer.New(),
		bookmarks:  cache.New[string, domain.BookmarkViewModel](opts.BookmarkTTL, cacheOpts...),
		popularity: cache.New[string, []domain.PopularItem](opts.PopularTTL, cacheOpts...),
		starCounts: cache.New[string, int](opts.StarTTL, cacheOpts...),
		canonical:  canon,
		log:        log.With(logger.String("component", "panel")),
	}

	var starOpts []stars.Option
	if opts.StarBatchDelay != 0 {
		starOpts = append(starOpts, stars.WithDelay(max(opts.StarBatchDelay, 0)))
	}
	if opts.StarBatchSize > 0 {
		starOpts = append(starOpts, stars.WithBatchSize(opts.StarBatchSize))
	}
	starFetcher := stars.NewFetcher(up, s.starCounts, starOpts...)

	s.aggregator = aggregator.New(up, starFetcher, s.bookmarks, s.seq, out, log,
		aggregator.IncludeEmptyComments(opts.IncludeEmptyComments))
	s.popular = popular.NewFetcher(src, s.popularity, s.seq, out, log)
	return s
}

// RequestBookmarks starts a new bookmarks request, superseding any earlier
// one, and runs it to completion. It returns the request token.
func (s *Service) RequestBookmarks(ctx context.Context, req BookmarksRequest) (uint64, error) {
	token := s.seq.Next(sequencer.Bookmarks)
	metrics.Triggers.WithLabelValues(sequencer.Bookmarks.String()).Inc()

	target := s.effectiveURL(ctx, req, token)
	return token, s.aggregator.Aggregate(ctx, target, token)
}

// RequestOriginPopular starts a new origin popularity request.
func (s *Service) RequestOriginPopular(ctx context.Context, req PopularRequest) (uint64, error) {
	token := s.seq.Next(sequencer.OriginPopular)
	metrics.Triggers.WithLabelValues(sequencer.OriginPopular.String()).Inc()

	return token, s.popular.Fetch(ctx, req.target(), token)
}

// WarmBookmarks fills the caches for url without emitting anything and
// without superseding user requests.
func (s *Service) WarmBookmarks(ctx context.Context, url string) error {
	return s.aggregator.WithSink(sink.Discard).Aggregate(ctx, url, 0)
}

// WarmOriginPopular fills the popularity cache for hostOrURL.
func (s *Service) WarmOriginPopular(ctx context.Context, hostOrURL string) error {
	return s.popular.WithSink(sink.Discard).Fetch(ctx, hostOrURL, 0)
}

// Sweep drops every expired cache entry.
func (s *Service) Sweep() SweepResult {
	return SweepResult{
		Bookmarks: s.bookmarks.Sweep(),
		Popular:   s.popularity.Sweep(),
		Stars:     s.starCounts.Sweep(),
	}
}

func (s *Service) Stats() Stats {
	return Stats{
		BookmarkEntries: s.bookmarks.Len(),
		PopularEntries:  s.popularity.Len(),
		StarEntries:     s.starCounts.Len(),
		BookmarksToken:  s.seq.Current(sequencer.Bookmarks),
		PopularToken:    s.seq.Current(sequencer.OriginPopular),
	}
}

// effectiveURL substitutes the page's canonical URL when one is found.
func (s *Service) effectiveURL(ctx context.Context, req BookmarksRequest, token uint64) string {
	if s.canonical == nil || !isHTTPURL(req.URL) {
		return req.URL
	}

	log := s.log.With(logger.String("url", req.URL), logger.Int("tab_id", req.TabID), logger.Uint64("token", token))
	res := s.canonical.Resolve(ctx, req.URL, req.TabID)

	switch res.Status {
	case canonical.StatusFound:
		if res.URL != req.URL {
			log.Debug("using canonical url", logger.String("canonical", res.URL))
			return res.URL
		}
	case canonical.StatusError:
		log.Debug("canonical lookup failed, using original url", logger.Error(res.Err))
	case canonical.StatusInvalidCanonical:
		log.Debug("ignoring non-http canonical url")
	case canonical.StatusInvalidTabID:
		log.Debug("no tab id, canonical lookup skipped")
	}
	return req.URL
}

func (r PopularRequest) target() string {
	if strings.TrimSpace(r.Origin) != "" {
		return r.Origin
	}
	return r.URL
}

func isHTTPURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
