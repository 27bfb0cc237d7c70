package hatena

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
)

// FetchOriginPopular returns the most bookmarked pages of host.
func (c *Client) FetchOriginPopular(ctx context.Context, host string) ([]domain.PopularItem, error) {
	apiURL := c.bookmarkBase + "/entrylist/json?sort=count&url=" + url.QueryEscape(host)

	body, err := c.get(ctx, apiEntrylist, apiURL)
	if err != nil {
		return nil, err
	}

	arr, err := ParseWrappedJSONArray(string(body))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(apiEntrylist, "decode_error").Inc()
		return nil, fmt.Errorf("decode %s response: %w", apiEntrylist, err)
	}
	return toPopularItems(arr), nil
}

// ParseWrappedJSONArray parses a JSON array that may be wrapped as "(...)",
// "(...);" or followed by a trailing ";". A value that is not an array
// yields an empty slice.
func ParseWrappedJSONArray(text string) ([]any, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return []any{}, nil
	}

	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ");"):
		s = strings.TrimSpace(s[1 : len(s)-2])
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(s[:len(s)-1])
	}

	v, err := decodeLoose([]byte(s))
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return []any{}, nil
	}
	return arr, nil
}

func toPopularItems(arr []any) []domain.PopularItem {
	items := make([]domain.PopularItem, 0, len(arr))
	for _, x := range arr {
		obj, _ := x.(map[string]any)
		link := asStrict(obj["link"])
		if link == "" {
			continue
		}
		items = append(items, domain.PopularItem{
			Link:  link,
			Title: asStrict(obj["title"]),
			Count: asCount(obj["count"]),
		})
	}
	return items
}
