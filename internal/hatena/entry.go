package hatena

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
)

// FetchEntry returns the entry of targetURL. A missing entry is reported as
// an Entry with an empty EID, not as an error.
func (c *Client) FetchEntry(ctx context.Context, targetURL string) (domain.Entry, error) {
	apiURL := c.bookmarkBase + "/entry/jsonlite/?url=" + url.QueryEscape(targetURL)

	body, err := c.get(ctx, apiBookmark, apiURL)
	if err != nil {
		return domain.Entry{}, err
	}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return domain.Entry{}, nil
	}

	raw, err := decodeLoose([]byte(trimmed))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(apiBookmark, "decode_error").Inc()
		return domain.Entry{}, fmt.Errorf("decode %s response: %w", apiBookmark, err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.Entry{}, nil
	}
	return toEntry(obj), nil
}

func toEntry(obj map[string]any) domain.Entry {
	e := domain.Entry{
		EID:      asString(obj["eid"]),
		Count:    asCount(obj["count"]),
		EntryURL: asStrict(obj["entry_url"]),
	}
	if e.EID == "0" {
		e.EID = ""
	}

	list, ok := obj["bookmarks"].([]any)
	if !ok {
		return e
	}
	e.HasBookmarkList = true
	e.Bookmarks = make([]domain.EntryBookmark, 0, len(list))
	for _, item := range list {
		b, _ := item.(map[string]any)
		e.Bookmarks = append(e.Bookmarks, domain.EntryBookmark{
			User:      asStrict(b["user"]),
			Comment:   asStrict(b["comment"]),
			Timestamp: asStrict(b["timestamp"]),
			Tags:      asStrings(b["tags"]),
		})
	}
	return e
}
