package hatena

import (
	"context"
	"fmt"
	"net/url"

	"github.com/MrSnakeDoc/sidemark/internal/metrics"
)

// FetchStarCounts looks up star counts for uris in one call. Only URIs that
// appear in the response are present in the result.
func (c *Client) FetchStarCounts(ctx context.Context, uris []string) (map[string]int, error) {
	out := make(map[string]int, len(uris))
	if len(uris) == 0 {
		return out, nil
	}

	params := url.Values{"uri": uris}
	apiURL := c.starBase + "/entry.json?" + params.Encode()

	body, err := c.get(ctx, apiStar, apiURL)
	if err != nil {
		return nil, err
	}

	raw, err := decodeLoose(body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(apiStar, "decode_error").Inc()
		return nil, fmt.Errorf("decode %s response: %w", apiStar, err)
	}

	obj, _ := raw.(map[string]any)
	entries, _ := obj["entries"].([]any)
	for _, item := range entries {
		e, ok := item.(map[string]any)
		if !ok {
			continue
		}
		uri, ok := e["uri"].(string)
		if !ok {
			continue
		}
		stars, _ := e["stars"].([]any)
		out[uri] = len(stars)
	}
	return out, nil
}
