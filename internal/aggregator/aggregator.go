package aggregator

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/cache"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
	"github.com/MrSnakeDoc/sidemark/internal/stars"
)

// EntryLister fetches the bookmark entry of a URL.
type EntryLister interface {
	FetchEntry(ctx context.Context, targetURL string) (domain.Entry, error)
}

// Cache holds view models per target URL.
type Cache = cache.Expiring[string, domain.BookmarkViewModel]

// Aggregator builds the bookmark view of a URL from the entry and star
// APIs and pushes every revision to a sink.
type Aggregator struct {
	entries      EntryLister
	stars        *stars.Fetcher
	cache        *Cache
	seq          *sequencer.Sequencer
	sink         sink.Sink
	log          logger.Logger
	includeEmpty bool
}

type Option func(*Aggregator)

// IncludeEmptyComments keeps bookmarks without comment text.
func IncludeEmptyComments(include bool) Option {
	return func(a *Aggregator) { a.includeEmpty = include }
}

func New(
	entries EntryLister,
	starFetcher *stars.Fetcher,
	c *Cache,
	seq *sequencer.Sequencer,
	out sink.Sink,
	log logger.Logger,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		entries: entries,
		stars:   starFetcher,
		cache:   c,
		seq:     seq,
		sink:    out,
		log:     log.With(logger.String("component", "aggregator")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithSink returns a copy that shares caches and sequencer but emits to out.
func (a *Aggregator) WithSink(out sink.Sink) *Aggregator {
	cp := *a
	cp.sink = out
	return &cp
}

// Aggregate runs one fetch sequence for url under token. Messages are only
// emitted while token is current; errors are returned either way.
func (a *Aggregator) Aggregate(ctx context.Context, url string, token uint64) error {
	log := a.log.With(logger.String("url", url), logger.Uint64("token", token))

	if !isHTTPURL(url) {
		log.Debug("not an http(s) url, sending empty view")
		vm := domain.EmptyViewModel(url)
		a.emit(ctx, token, sink.Message{Type: sink.BookmarksUpdate, Key: url, Data: &vm})
		return nil
	}

	cached, hit := a.cache.Get(url)
	metrics.CacheLookups.WithLabelValues("bookmarks", metrics.CacheResult(hit)).Inc()
	if hit {
		log.Debug("serving cached view")
		a.emit(ctx, token, sink.Message{Type: sink.BookmarksUpdate, Key: url, Data: &cached})
		return nil
	}

	a.emit(ctx, token, sink.Message{Type: sink.BookmarksLoading, Key: url})

	if err := a.fetch(ctx, log, url, token); err != nil {
		if a.seq.IsStale(sequencer.Bookmarks, token) {
			log.Debug("dropping error of superseded request", logger.Error(err))
		} else {
			log.Warn("bookmark fetch failed", logger.Error(err))
		}
		a.emit(ctx, token, sink.Message{Type: sink.BookmarksError, Key: url, Error: err.Error()})
		return err
	}
	return nil
}

func (a *Aggregator) fetch(ctx context.Context, log logger.Logger, url string, token uint64) error {
	entry, err := a.entries.FetchEntry(ctx, url)
	if err != nil {
		return err
	}

	base, candidates, allURIs := a.buildBase(url, entry)
	a.cache.Set(url, base)
	a.emit(ctx, token, sink.Message{Type: sink.BookmarksUpdate, Key: url, Data: &base})

	if len(allURIs) == 0 {
		return nil
	}

	isStale := func() bool { return a.seq.IsStale(sequencer.Bookmarks, token) }
	counts, err := a.stars.Fetch(ctx, allURIs, isStale, func(p domain.ProgressReport) {
		a.emit(ctx, token, sink.Message{Type: sink.BookmarksStarProgress, Key: url, Progress: &p})
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if isStale() {
		log.Debug("superseded during star fetch, keeping base view")
		metrics.StaleSuppressed.WithLabelValues(sequencer.Bookmarks.String()).Inc()
		return nil
	}

	enriched := domain.ApplyStarCounts(base, candidates, counts)
	a.cache.Set(url, enriched)
	a.emit(ctx, token, sink.Message{Type: sink.BookmarksUpdate, Key: url, Data: &enriched})

	log.Debug("bookmarks aggregated",
		logger.Int("comments", len(enriched.Comments)),
		logger.Int("candidates", len(allURIs)))
	return nil
}

// buildBase turns an entry into the star-less view model, the candidate
// URIs of each comment by index, and the union of all candidates.
func (a *Aggregator) buildBase(url string, entry domain.Entry) (domain.BookmarkViewModel, map[int][]string, []string) {
	candidates := make(map[int][]string)

	if entry.EID == "" || !entry.HasBookmarkList {
		vm := domain.EmptyViewModel(url)
		vm.EntryURL = domain.StringPtr(entry.EntryURL)
		return vm, candidates, nil
	}

	eid := entry.EID
	vm := domain.BookmarkViewModel{
		TargetURL:     url,
		EID:           &eid,
		BookmarkCount: entry.Count,
		Comments:      make([]domain.BookmarkComment, 0, len(entry.Bookmarks)),
		EntryURL:      domain.StringPtr(entry.EntryURL),
	}

	var all []string
	for _, b := range entry.Bookmarks {
		if b.User == "" {
			continue
		}
		if !a.includeEmpty && strings.TrimSpace(b.Comment) == "" {
			continue
		}

		uris := domain.BuildStarCandidates(eid, b)
		tags := b.Tags
		if tags == nil {
			tags = []string{}
		}

		c := domain.BookmarkComment{
			User:      b.User,
			Comment:   b.Comment,
			Timestamp: b.Timestamp,
			Tags:      tags,
		}
		if len(uris) > 0 {
			primary := uris[0]
			c.StarTargetURI = &primary
			candidates[len(vm.Comments)] = uris
			all = append(all, uris...)
		}
		vm.Comments = append(vm.Comments, c)
	}

	return vm, candidates, domain.Unique(all)
}

// emit sends msg unless token has been superseded.
func (a *Aggregator) emit(ctx context.Context, token uint64, msg sink.Message) {
	if a.seq.IsStale(sequencer.Bookmarks, token) {
		metrics.StaleSuppressed.WithLabelValues(sequencer.Bookmarks.String()).Inc()
		return
	}
	msg.Token = token
	a.sink.Emit(ctx, msg)
}

func isHTTPURL(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
