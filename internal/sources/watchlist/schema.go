package watchlist

// Config is the watchlist file layout:
//
//	urls:
//	  - https://example.com/article
//	origins:
//	  - example.com
type Config struct {
	URLs    []string `yaml:"urls"`
	Origins []string `yaml:"origins"`
}

// Targets are the validated pages and hosts to keep warm.
type Targets struct {
	URLs    []string
	Origins []string
}

// Len returns the number of targets.
func (t Targets) Len() int {
	return len(t.URLs) + len(t.Origins)
}
