package watchlist

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/popular"
)

// Mapper validates a watchlist Config into Targets.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Map keeps http(s) URLs and hosts that normalize, deduplicated in file
// order. It fails when nothing valid remains.
func (m *Mapper) Map(cfg Config) (Targets, error) {
	var t Targets
	seenURL := make(map[string]bool)
	seenHost := make(map[string]bool)

	for _, raw := range cfg.URLs {
		u := strings.TrimSpace(raw)
		if !isHTTPURL(u) || seenURL[u] {
			continue
		}
		seenURL[u] = true
		t.URLs = append(t.URLs, u)
	}

	for _, raw := range cfg.Origins {
		host, ok := popular.NormalizeHost(raw)
		if !ok || seenHost[host] {
			continue
		}
		seenHost[host] = true
		t.Origins = append(t.Origins, host)
	}

	if t.Len() == 0 {
		return Targets{}, fmt.Errorf("no valid urls or origins found in watchlist")
	}
	return t, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
