package hatena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/metrics"
	"github.com/MrSnakeDoc/sidemark/internal/utils"
	"github.com/MrSnakeDoc/sidemark/internal/version"
)

const (
	DefaultBookmarkBase = "https://b.hatena.ne.jp"
	DefaultStarBase     = "https://s.hatena.com"

	apiBookmark  = "Hatena Bookmark"
	apiStar      = "Hatena Star"
	apiEntrylist = "Hatena entrylist"

	maxBodyBytes = 8 << 20
)

// Client talks to the bookmark, star and entrylist APIs.
type Client struct {
	httpClient   *http.Client
	bookmarkBase string
	starBase     string
	userAgent    string
	log          logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBookmarkBase overrides the entry and entrylist host.
func WithBookmarkBase(base string) Option {
	return func(c *Client) { c.bookmarkBase = base }
}

// WithStarBase overrides the star API host.
func WithStarBase(base string) Option {
	return func(c *Client) { c.starBase = base }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		bookmarkBase: DefaultBookmarkBase,
		starBase:     DefaultStarBase,
		userAgent:    version.UserAgent(),
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, api, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", api, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(api, "transport_error").Inc()
		return nil, fmt.Errorf("%s request: %w", api, err)
	}
	defer utils.DrainClose(resp.Body, 4<<10)

	c.log.Debug("upstream call",
		logger.String("api", api),
		logger.String("url", rawURL),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(api, "http_error").Inc()
		return nil, &HTTPError{
			API:        api,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(api, "transport_error").Inc()
		return nil, fmt.Errorf("read %s response: %w", api, err)
	}
	metrics.UpstreamRequests.WithLabelValues(api, "ok").Inc()
	return body, nil
}

// decodeLoose decodes JSON keeping numbers as json.Number.
func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
