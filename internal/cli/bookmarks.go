package cli

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/app"
	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

// Execute implements the go-flags Commander interface for BookmarksCommand.
func (c *BookmarksCommand) Execute(args []string) error {
	if strings.TrimSpace(c.URL) == "" && len(args) > 0 {
		c.URL = args[0]
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("--url is required")
	}

	order := domain.SortOrder(c.Sort)
	if order != domain.SortByStars && order != domain.SortByDate {
		return fmt.Errorf("--sort must be %q or %q, got %q", domain.SortByStars, domain.SortByDate, c.Sort)
	}

	cfg := c.env.loadConfig()
	svc := app.NewPanel(cfg, newLogger(c.globals), output(c.env, c.globals, order))

	ctx, stop := signalContext()
	defer stop()

	if _, err := svc.RequestBookmarks(ctx, panel.BookmarksRequest{URL: c.URL, TabID: c.TabID}); err != nil {
		return fmt.Errorf("bookmarks: %w", err)
	}
	return nil
}
