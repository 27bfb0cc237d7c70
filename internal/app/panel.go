package app

import (
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/canonical"
	"github.com/MrSnakeDoc/sidemark/internal/config"
	"github.com/MrSnakeDoc/sidemark/internal/hatena"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
	"github.com/MrSnakeDoc/sidemark/internal/popular"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
)

// NewPanel wires the upstream client, the popularity source and the
// canonical lookup into a panel service that emits to out.
func NewPanel(cfg *config.Config, log logger.Logger, out sink.Sink) *panel.Service {
	client := hatena.NewClient(cfg.UpstreamTimeout, log,
		hatena.WithBookmarkBase(cfg.BookmarkBaseURL),
		hatena.WithStarBase(cfg.StarBaseURL),
	)

	var source popular.Source = client
	if cfg.PopularSource == config.PopularSourceRSS {
		source = hatena.NewFeedSource(client)
	}

	var canon panel.CanonicalResolver
	if cfg.CanonicalLookup {
		canon = canonical.NewResolver(cfg.CanonicalTimeout)
	}

	return panel.New(client, source, canon, out, log, panel.Options{
		BookmarkTTL:          cfg.BookmarkTTL,
		PopularTTL:           cfg.PopularTTL,
		StarTTL:              cfg.StarTTL,
		StarBatchSize:        cfg.StarBatchSize,
		StarBatchDelay:       starDelay(cfg),
		IncludeEmptyComments: cfg.IncludeEmptyComments,
	})
}

// starDelay maps an explicit 0 to "no pause"; panel.Options treats 0 as default.
func starDelay(cfg *config.Config) time.Duration {
	if cfg.StarBatchDelay == 0 {
		return -1
	}
	return cfg.StarBatchDelay
}
