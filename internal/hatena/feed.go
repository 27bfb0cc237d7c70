package hatena

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
)

// FeedSource reads host popularity from the RSS flavour of the entrylist.
type FeedSource struct {
	client *Client
	parser *gofeed.Parser
}

func NewFeedSource(c *Client) *FeedSource {
	return &FeedSource{client: c, parser: gofeed.NewParser()}
}

func (f *FeedSource) FetchOriginPopular(ctx context.Context, host string) ([]domain.PopularItem, error) {
	apiURL := f.client.bookmarkBase + "/entrylist?sort=count&mode=rss&url=" + url.QueryEscape(host)

	body, err := f.client.get(ctx, apiEntrylist, apiURL)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []domain.PopularItem{}, nil
	}

	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(apiEntrylist, "decode_error").Inc()
		return nil, fmt.Errorf("parse %s feed: %w", apiEntrylist, err)
	}

	items := make([]domain.PopularItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || strings.TrimSpace(it.Link) == "" {
			continue
		}
		items = append(items, domain.PopularItem{
			Link:  it.Link,
			Title: it.Title,
			Count: bookmarkCount(it),
		})
	}
	return items, nil
}

func bookmarkCount(it *gofeed.Item) int {
	ns, ok := it.Extensions["hatena"]
	if !ok {
		return 0
	}
	vals := ns["bookmarkcount"]
	if len(vals) == 0 {
		return 0
	}
	return asCount(strings.TrimSpace(vals[0].Value))
}
