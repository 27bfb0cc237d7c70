package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	JSON     bool   `long:"json" description:"Print panel messages as JSON lines"`
	LogLevel string `long:"log-level" description:"Log level (debug, info, warn, error)" default:"warn"`
	Version  bool   `long:"version" description:"Show version and exit"`
}

// BookmarksCommand fetches the bookmarks and star counts of one page.
type BookmarksCommand struct {
	URL   string `long:"url" description:"Page URL (required)"`
	TabID int    `long:"tab-id" description:"Tab id; a positive value enables the canonical URL lookup"`
	Sort  string `long:"sort" description:"Comment order in text output: stars | date" default:"stars"`

	env     *env
	globals *GlobalFlags
}

// PopularCommand lists the most bookmarked pages of a host.
type PopularCommand struct {
	Origin string `long:"origin" description:"Host or URL whose popular pages to list (required)"`

	env     *env
	globals *GlobalFlags
}

// WatchCommand follows panel messages published by a running server.
type WatchCommand struct {
	Channel string `long:"channel" description:"Pub/Sub channel (defaults to SIDEMARK_REDIS_CHANNEL)"`
	Stream  string `long:"stream" description:"Only show one stream: bookmarks | origin-popular"`

	env     *env
	globals *GlobalFlags
}
