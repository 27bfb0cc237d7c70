package canonical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/sidemark/internal/utils"
	"github.com/MrSnakeDoc/sidemark/internal/version"
)

// Status is the outcome of a canonical lookup.
type Status string

const (
	StatusFound            Status = "found"
	StatusNotFound         Status = "not-found"
	StatusInvalidTabID     Status = "invalid-tabId"
	StatusInvalidCanonical Status = "invalid-canonical"
	StatusError            Status = "error"
)

const maxPageBytes = 2 << 20

// Result of Resolve. URL is set only when Status is StatusFound.
type Result struct {
	URL    string
	Status Status
	Err    error
}

// Resolver reads <link rel="canonical"> from pages.
type Resolver struct {
	client    *http.Client
	userAgent string
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: version.UserAgent(),
	}
}

// Resolve looks up the canonical URL of pageURL. tabID identifies the
// panel tab the page is open in; a non-positive id means the page is not
// attached to a tab and nothing is fetched.
func (r *Resolver) Resolve(ctx context.Context, pageURL string, tabID int) Result {
	if tabID <= 0 {
		return Result{Status: StatusInvalidTabID}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	defer utils.DrainClose(resp.Body, 4<<10)

	if resp.StatusCode != http.StatusOK {
		return Result{Status: StatusError, Err: fmt.Errorf("got status %d", resp.StatusCode)}
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	// relative hrefs resolve against the final URL after redirects
	base := resp.Request.URL
	return fromHref(base, findCanonical(doc))
}

func fromHref(base *url.URL, href string) Result {
	href = strings.TrimSpace(href)
	if href == "" {
		return Result{Status: StatusNotFound}
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return Result{Status: StatusNotFound}
	}
	s := strings.TrimSpace(resolved.String())
	if s == "" {
		return Result{Status: StatusNotFound}
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Result{Status: StatusInvalidCanonical}
	}
	return Result{URL: s, Status: StatusFound}
}

// findCanonical returns the href of the first <link> whose rel is
// "canonical", compared case-insensitively.
func findCanonical(doc *html.Node) string {
	var href string
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, h string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "rel":
					rel = strings.ToLower(strings.TrimSpace(a.Val))
				case "href":
					h = a.Val
				}
			}
			if rel == "canonical" {
				href, found = h, true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return href
}
